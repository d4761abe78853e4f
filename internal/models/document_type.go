package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type DocumentCategory string

const (
	CategoryAcademic       DocumentCategory = "academic"
	CategoryFinancial      DocumentCategory = "financial"
	CategoryIdentity       DocumentCategory = "identity"
	CategoryMedical        DocumentCategory = "medical"
	CategoryVisa           DocumentCategory = "visa"
	CategoryLanguage       DocumentCategory = "language"
	CategoryExperience     DocumentCategory = "experience"
	CategoryRecommendation DocumentCategory = "recommendation"
	CategoryPersonal       DocumentCategory = "personal"
	CategoryTravel         DocumentCategory = "travel"
	CategoryAccommodation  DocumentCategory = "accommodation"
	CategoryOther          DocumentCategory = "other"
)

func (c DocumentCategory) Valid() bool {
	switch c {
	case CategoryAcademic, CategoryFinancial, CategoryIdentity, CategoryMedical, CategoryVisa,
		CategoryLanguage, CategoryExperience, CategoryRecommendation, CategoryPersonal,
		CategoryTravel, CategoryAccommodation, CategoryOther:
		return true
	}
	return false
}

// DocumentType governs which files are acceptable for a kind of document.
type DocumentType struct {
	ID          uint             `gorm:"column:id;primaryKey" json:"id"`
	Name        string           `gorm:"column:name;size:255;not null" json:"name"`
	Description string           `gorm:"column:description;type:text" json:"description"`
	Category    DocumentCategory `gorm:"column:category;size:32;index" json:"category"`

	// Lowercase extensions without the leading dot, decoded from JSON here
	// so nothing above the repository sees the raw column.
	AllowedFileTypes datatypes.JSONSlice[string] `gorm:"column:allowed_file_types" json:"allowed_file_types"`

	MaxFileSizeKB       int64 `gorm:"column:max_file_size;not null;default:2048" json:"max_file_size"`
	IsRequired          bool  `gorm:"column:is_required;not null;default:false" json:"is_required"`
	HasExpiry           bool  `gorm:"column:has_expiry;not null;default:false" json:"has_expiry"`
	AllowsMultipleFiles bool  `gorm:"column:allows_multiple_files;not null;default:false" json:"allows_multiple_files"`
	MaxFiles            int   `gorm:"column:max_files;not null;default:1" json:"max_files"`
	IsActive            bool  `gorm:"column:is_active;not null" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (DocumentType) TableName() string { return "document_types" }

// MaxFileSizeBytes converts the stored KB limit to bytes.
func (t DocumentType) MaxFileSizeBytes() int64 { return t.MaxFileSizeKB * 1024 }

// Allows reports whether ext (with or without a leading dot) is accepted.
func (t DocumentType) Allows(ext string) bool {
	ext = NormalizeExtension(ext)
	for _, a := range t.AllowedFileTypes {
		if NormalizeExtension(a) == ext {
			return true
		}
	}
	return false
}

func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
