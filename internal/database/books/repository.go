// Package books provides database operations for mirrored catalog entries.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	err := repo.Upsert(book)
package books

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bibliotech/internal/entities"
)

// MaxListLimit is the hard ceiling on page size. Requests asking for more
// (or for a non-positive amount) silently fall back to this value.
const MaxListLimit = 25

// ListOptions narrows and paginates a book listing.
type ListOptions struct {
	Language string
	Limit    int
	Skip     int
	Sort     string
}

var sortableColumns = map[string]string{
	"id":               "id",
	"title":            "title",
	"language":         "language",
	"publication_date": "publication_date",
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the book, or replaces every field of the existing row with
// the same ID. Calling it repeatedly with identical input is a no-op.
func (r *Repository) Upsert(book *entities.Book) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(book).Error
}

// GetByID retrieves a single book by its catalog identifier.
func (r *Repository) GetByID(id uint64) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns books matching the options, paginated. The limit is clamped
// to MaxListLimit server-side.
func (r *Repository) List(opts ListOptions) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{})

	if opts.Language != "" {
		query = query.Where("language = ?", opts.Language)
	}

	column, ok := sortableColumns[opts.Sort]
	if !ok {
		column = "id"
	}
	query = query.Order(column + " ASC")

	limit := opts.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	query = query.Limit(limit)

	if opts.Skip > 0 {
		query = query.Offset(opts.Skip)
	}

	var books []entities.Book
	err := query.Find(&books).Error
	return books, err
}

// Count returns the total number of mirrored books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
