// Package catalog provides database operations for the global catalog
// synchronization status.
//
// The status is a singleton row, created lazily with the default
// "unsynchronized" value on first access. Every transition goes through
// SetStatus or BeginSynchronizing.
package catalog

import (
	"time"

	"gorm.io/gorm"

	"bibliotech/internal/entities"
)

// singletonID pins the status to a single well-known row.
const singletonID = 1

// Repository handles all catalog status database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog status repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the singleton status row, creating it with the default
// status if it does not exist yet. Concurrent callers race on the same
// primary key, so at most one row can ever be created.
func (r *Repository) GetOrCreate() (*entities.CatalogStatus, error) {
	status := entities.CatalogStatus{
		ID:     singletonID,
		Status: entities.CatalogUnsynchronized,
	}
	err := r.db.Where(entities.CatalogStatus{ID: singletonID}).
		Attrs(entities.CatalogStatus{Status: entities.CatalogUnsynchronized}).
		FirstOrCreate(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// SetStatus transitions the singleton to the given status. It returns false
// without touching the store when the value is not a recognized status.
func (r *Repository) SetStatus(value entities.CatalogStatusValue) (bool, error) {
	if !entities.IsValidCatalogStatus(value) {
		return false, nil
	}

	status, err := r.GetOrCreate()
	if err != nil {
		return false, err
	}

	status.Status = value
	if err := r.db.Save(status).Error; err != nil {
		return false, err
	}
	return true, nil
}

// IsSynchronized reports whether the catalog is fully synchronized.
func (r *Repository) IsSynchronized() (bool, error) {
	status, err := r.GetOrCreate()
	if err != nil {
		return false, err
	}
	return status.Status == entities.CatalogSynchronized, nil
}

// BeginSynchronizing atomically moves the status to "synchronizing" and
// reports whether this caller won the transition. A second caller observing
// an in-flight run gets false, which keeps two runs from proceeding past the
// guard at once.
func (r *Repository) BeginSynchronizing() (bool, error) {
	if _, err := r.GetOrCreate(); err != nil {
		return false, err
	}

	result := r.db.Model(&entities.CatalogStatus{}).
		Where("id = ? AND status <> ?", singletonID, entities.CatalogSynchronizing).
		Updates(map[string]any{
			"status":     entities.CatalogSynchronizing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
