package catalog

// Routing keys published on catalog changes.
const (
	RKBookCreated = "catalog.book.created"
	RKBookUpdated = "catalog.book.updated"
	RKBookDeleted = "catalog.book.deleted"
)

type BookChangedPayload struct {
	BookID int64  `json:"book_id"`
	ISBN   string `json:"isbn,omitempty"`
	Price  string `json:"price,omitempty"`
}
