package entities

import "time"

type CatalogStatusValue string

const (
	CatalogUnsynchronized CatalogStatusValue = "unsynchronized"
	CatalogSynchronizing  CatalogStatusValue = "synchronizing"
	CatalogSynchronized   CatalogStatusValue = "synchronized"
)

// CatalogStatuses lists every recognized status value.
var CatalogStatuses = []CatalogStatusValue{
	CatalogUnsynchronized,
	CatalogSynchronizing,
	CatalogSynchronized,
}

// IsValidCatalogStatus reports whether v is one of the recognized statuses.
func IsValidCatalogStatus(v CatalogStatusValue) bool {
	for _, s := range CatalogStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CatalogStatus tracks the global synchronization state of the mirrored
// catalog. Exactly one row exists; it is created lazily on first access.
type CatalogStatus struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	Status    CatalogStatusValue `gorm:"size:20;not null;default:'unsynchronized'" json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (CatalogStatus) TableName() string {
	return "catalog_status"
}
