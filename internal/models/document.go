package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentStatus string

const (
	DocumentPending       DocumentStatus = "pending"
	DocumentVerified      DocumentStatus = "verified"
	DocumentRejected      DocumentStatus = "rejected"
	DocumentNeedsRevision DocumentStatus = "needs_revision"
	// DocumentExpired is never stored; see EffectiveStatus.
	DocumentExpired DocumentStatus = "expired"
)

// VerificationDecision is what a reviewer submits. "approved" is stored on
// the document as "verified"; the audit row keeps the decision as given.
type VerificationDecision string

const (
	DecisionApproved      VerificationDecision = "approved"
	DecisionRejected      VerificationDecision = "rejected"
	DecisionNeedsRevision VerificationDecision = "needs_revision"
)

func (d VerificationDecision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionNeedsRevision:
		return true
	}
	return false
}

// DocumentStatus maps the decision onto the stored document status.
func (d VerificationDecision) DocumentStatus() DocumentStatus {
	if d == DecisionApproved {
		return DocumentVerified
	}
	return DocumentStatus(d)
}

// Document is one logical upload for a student, made of one or more files.
// Status, RejectionReason, VerifiedBy and VerifiedAt cache the latest
// verification; Verifications is the full history.
type Document struct {
	ID             uint   `gorm:"column:id;primaryKey" json:"id"`
	StudentID      uint   `gorm:"column:student_id;not null;index" json:"student_id"`
	DocumentTypeID uint   `gorm:"column:document_type_id;not null;index" json:"document_type_id"`
	Title          string `gorm:"column:title;size:255;not null" json:"title"`
	Description    string `gorm:"column:description;type:text" json:"description"`

	ExpiryDate *time.Time     `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	Status     DocumentStatus `gorm:"column:status;size:32;not null;index" json:"status"`
	IsRequired bool           `gorm:"column:is_required;not null;default:false" json:"is_required"`
	IsPublic   bool           `gorm:"column:is_public;not null;default:false" json:"is_public"`

	RejectionReason *string    `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
	VerifiedBy      *uint      `gorm:"column:verified_by" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	UploadedBy      *uint      `gorm:"column:uploaded_by" json:"uploaded_by,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`

	DocumentType  *DocumentType          `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
	Files         []DocumentFile         `gorm:"foreignKey:DocumentID" json:"files"`
	Verifications []DocumentVerification `gorm:"foreignKey:DocumentID" json:"verifications"`
}

func (Document) TableName() string { return "documents" }

// EffectiveStatus reports "expired" once the expiry date has passed and the
// stored status otherwise. It never touches the stored field.
func (d Document) EffectiveStatus(now time.Time) DocumentStatus {
	if d.ExpiryDate != nil && d.ExpiryDate.Before(now) {
		return DocumentExpired
	}
	return d.Status
}

// PrimaryFile returns the primary file, falling back to the lowest sort order.
func (d Document) PrimaryFile() *DocumentFile {
	var first *DocumentFile
	for i := range d.Files {
		f := &d.Files[i]
		if f.IsPrimary {
			return f
		}
		if first == nil || f.SortOrder < first.SortOrder {
			first = f
		}
	}
	return first
}

type DocumentFile struct {
	ID               uint   `gorm:"column:id;primaryKey" json:"id"`
	DocumentID       uint   `gorm:"column:document_id;not null;index" json:"document_id"`
	FilePath         string `gorm:"column:file_path;size:512;not null" json:"-"`
	OriginalFileName string `gorm:"column:original_file_name;size:255;not null" json:"original_file_name"`
	Extension        string `gorm:"column:extension;size:16" json:"extension"`
	FileSize         int64  `gorm:"column:file_size;not null" json:"file_size"`
	MimeType         string `gorm:"column:mime_type;size:128" json:"mime_type"`
	FileHash         string `gorm:"column:file_hash;size:64;not null;uniqueIndex" json:"file_hash"`
	Description      string `gorm:"column:description;type:text" json:"description"`
	IsPrimary        bool   `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	SortOrder        int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (DocumentFile) TableName() string { return "document_files" }

type ChecklistItem struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
}

// DocumentVerification is an append-only audit record. There is no update
// or delete path for it anywhere in the repositories.
type DocumentVerification struct {
	ID              uint                              `gorm:"column:id;primaryKey" json:"id"`
	DocumentID      uint                              `gorm:"column:document_id;not null;index" json:"document_id"`
	VerifiedBy      uint                              `gorm:"column:verified_by;not null" json:"verified_by"`
	Status          VerificationDecision              `gorm:"column:status;size:32;not null" json:"status"`
	Notes           string                            `gorm:"column:notes;type:text" json:"notes"`
	RejectionReason *string                           `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
	Checklist       datatypes.JSONSlice[ChecklistItem] `gorm:"column:checklist" json:"checklist"`
	CreatedAt       time.Time                         `gorm:"column:created_at" json:"created_at"`
}

func (DocumentVerification) TableName() string { return "document_verifications" }
