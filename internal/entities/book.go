package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultPublisher is used when a catalog record carries no publisher of its own.
const DefaultPublisher = "Gutenberg"

// StringSlice stores an ordered list of strings as a JSON text column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringSlice: %T", value)
	}

	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}

// Book is one mirrored catalog entry. The primary key is the stable numeric
// identifier assigned by the upstream catalog, not an autoincrement.
type Book struct {
	ID              uint64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title           string      `gorm:"index;size:1024;not null" json:"title"`
	Authors         StringSlice `gorm:"type:text" json:"authors"`
	Publisher       string      `gorm:"size:256;not null" json:"publisher"`
	PublicationDate *time.Time  `json:"publication_date,omitempty"`
	Language        string      `gorm:"index;size:16" json:"language,omitempty"`
	Subjects        StringSlice `gorm:"type:text" json:"subjects"`
	LicenseRights   StringSlice `gorm:"type:text" json:"license_rights"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
