package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/storage"
)

var dialect = goqu.Dialect("sqlite3")

var bookColumns = []any{
	goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.isbn"),
	goqu.I("b.price"), goqu.I("b.description"), goqu.I("b.cover_image"),
	goqu.I("b.deleted"), goqu.I("b.created_at"), goqu.I("b.updated_at"),
}

// Repository reads and writes catalog rows. Writes that span several
// statements expect to run inside a transaction (see WithTx).
type Repository struct {
	db storage.Querier
}

func NewRepository(db storage.Querier) *Repository { return &Repository{db: db} }

// WithTx returns a Repository bound to tx.
func (r *Repository) WithTx(tx *sqlx.Tx) *Repository { return &Repository{db: tx} }

// selectBooks compiles f into a query over live books.
func selectBooks(f BookFilter) *goqu.SelectDataset {
	ds := dialect.From(goqu.T("books").As("b")).
		Select(bookColumns...).
		Where(goqu.I("b.deleted").Eq(0))
	if len(f.Titles) > 0 {
		ds = ds.Where(goqu.I("b.title").In(f.Titles))
	}
	if len(f.Authors) > 0 {
		ds = ds.Where(goqu.I("b.author").In(f.Authors))
	}
	if f.CategoryID != 0 {
		ds = ds.Where(goqu.I("b.id").In(
			dialect.From("book_categories").
				Select("book_id").
				Where(goqu.C("category_id").Eq(f.CategoryID)),
		))
	}
	return ds.Prepared(true)
}

func orderBy(p Page) exp.OrderedExpression {
	var col exp.Orderable = goqu.I("b." + p.Sort)
	if p.Sort == "price" {
		col = goqu.L("CAST(b.price AS REAL)")
	}
	if p.Desc {
		return col.Desc()
	}
	return col.Asc()
}

// Find returns the page of live books matching f and the total match count.
func (r *Repository) Find(ctx context.Context, f BookFilter, p Page) ([]Book, int64, error) {
	p = p.normalize()

	countSQL, countArgs, err := selectBooks(f).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, countSQL, countArgs...); err != nil {
		return nil, 0, err
	}

	query, args, err := selectBooks(f).
		Order(orderBy(p), goqu.I("b.id").Asc()).
		Limit(uint(p.Size)).
		Offset(uint(p.offset())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var books []Book
	if err := sqlx.SelectContext(ctx, r.db, &books, query, args...); err != nil {
		return nil, 0, err
	}
	if err := r.loadCategoryIDs(ctx, books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// Get returns a live book.
func (r *Repository) Get(ctx context.Context, id int64) (*Book, error) {
	query, args, err := selectBooks(BookFilter{}).Where(goqu.I("b.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, err
	}
	var b Book
	if err := sqlx.GetContext(ctx, r.db, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("book %d", id)
		}
		return nil, err
	}
	books := []Book{b}
	if err := r.loadCategoryIDs(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

func (r *Repository) loadCategoryIDs(ctx context.Context, books []Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int64, len(books))
	index := make(map[int64]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
		index[b.ID] = i
		books[i].CategoryIDs = []int64{}
	}
	query, args, err := dialect.From("book_categories").
		Select("book_id", "category_id").
		Where(goqu.C("book_id").In(ids)).
		Order(goqu.C("category_id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}
	var links []struct {
		BookID     int64 `db:"book_id"`
		CategoryID int64 `db:"category_id"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &links, query, args...); err != nil {
		return err
	}
	for _, l := range links {
		i := index[l.BookID]
		books[i].CategoryIDs = append(books[i].CategoryIDs, l.CategoryID)
	}
	return nil
}

// Create inserts b and its category links, filling ID and timestamps.
func (r *Repository) Create(ctx context.Context, b *Book) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO books(title, author, isbn, price, description, cover_image, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		b.Title, b.Author, b.ISBN, b.Price, b.Description, b.CoverImage, now, now)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return apperr.Conflictf("isbn %s already exists", b.ISBN)
		}
		return err
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return r.setCategories(ctx, b.ID, b.CategoryIDs)
}

// Update overwrites a live book's fields and category links.
func (r *Repository) Update(ctx context.Context, b *Book) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE books SET title=?, author=?, isbn=?, price=?, description=?, cover_image=?, updated_at=?
		WHERE id=? AND deleted=0`,
		b.Title, b.Author, b.ISBN, b.Price, b.Description, b.CoverImage, now, b.ID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return apperr.Conflictf("isbn %s already exists", b.ISBN)
		}
		return err
	}
	if err := expectOne(res, "book %d", b.ID); err != nil {
		return err
	}
	b.UpdatedAt = now
	return r.setCategories(ctx, b.ID, b.CategoryIDs)
}

// SoftDelete flags a live book as deleted.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET deleted=1, updated_at=? WHERE id=? AND deleted=0`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res, "book %d", id)
}

func (r *Repository) setCategories(ctx context.Context, bookID int64, categoryIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id=?`, bookID); err != nil {
		return err
	}
	for _, cid := range categoryIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO book_categories(book_id, category_id) VALUES (?, ?)`, bookID, cid); err != nil {
			return err
		}
	}
	return nil
}

// MissingCategories returns the ids among ids that have no category row.
func (r *Repository) MissingCategories(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := dialect.From("categories").
		Select("id").
		Where(goqu.C("id").In(ids)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}
	var found []int64
	if err := sqlx.SelectContext(ctx, r.db, &found, query, args...); err != nil {
		return nil, err
	}
	have := make(map[int64]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var missing []int64
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories(name, description) VALUES (?, ?)`, c.Name, c.Description)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return apperr.Conflictf("category %q already exists", c.Name)
		}
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT id, name, description FROM categories WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("category %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	out := []Category{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT id, name, description FROM categories ORDER BY name`)
	return out, err
}

func (r *Repository) UpdateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name=?, description=? WHERE id=?`, c.Name, c.Description, c.ID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return apperr.Conflictf("category %q already exists", c.Name)
		}
		return err
	}
	return expectOne(res, "category %d", c.ID)
}

// DeleteCategory removes the category; its book links go with it.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "category %d", id)
}

func expectOne(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFoundf(format, args...)
	}
	return nil
}
