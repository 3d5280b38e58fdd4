package user

const RKUserCreated = "user.created"

type CreatedPayload struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Roles  []Role `json:"roles"`
}
