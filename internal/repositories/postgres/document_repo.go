package postgres

import (
	"context"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"gorm.io/gorm"
)

type DocumentFilter struct {
	StudentID      uint
	DocumentTypeID uint
	// Status may be "expired", which is matched on expiry_date rather than
	// on the stored column.
	Status models.DocumentStatus
	Now    time.Time
	Offset int
	Limit  int
}

// DocumentRepository returns fully populated aggregates: files ordered by
// sort order, verifications oldest first, and the document type.
type DocumentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	CreateFile(ctx context.Context, f *models.DocumentFile) error
	GetByID(ctx context.Context, id uint) (*models.Document, error)
	List(ctx context.Context, f DocumentFilter) ([]models.Document, int64, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Document, error)
	ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	AppendVerification(ctx context.Context, v *models.DocumentVerification) error
	GetFile(ctx context.Context, documentID, fileID uint) (*models.DocumentFile, error)
	UpdateFileDescription(ctx context.Context, documentID, fileID uint, description string) error
	SetPrimaryFile(ctx context.Context, documentID, fileID uint) error
	DeleteFiles(ctx context.Context, documentID uint) ([]models.DocumentFile, error)
	Delete(ctx context.Context, id uint) error
}

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) aggregate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("DocumentType").
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Verifications", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		})
}

func (r *documentRepo) Create(ctx context.Context, d *models.Document) error {
	return translate(r.db.WithContext(ctx).Omit("DocumentType", "Files", "Verifications").Create(d).Error)
}

func (r *documentRepo) CreateFile(ctx context.Context, f *models.DocumentFile) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

func (r *documentRepo) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var d models.Document
	if err := r.aggregate(ctx).Where("id = ?", id).Take(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *documentRepo) filtered(ctx context.Context, f DocumentFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Document{})
	if f.StudentID != 0 {
		tx = tx.Where("student_id = ?", f.StudentID)
	}
	if f.DocumentTypeID != 0 {
		tx = tx.Where("document_type_id = ?", f.DocumentTypeID)
	}
	switch {
	case f.Status == models.DocumentExpired:
		tx = tx.Where("expiry_date IS NOT NULL AND expiry_date < ?", f.Now)
	case f.Status != "":
		tx = tx.Where("status = ?", f.Status).
			Where("(expiry_date IS NULL OR expiry_date >= ?)", f.Now)
	}
	return tx
}

func (r *documentRepo) List(ctx context.Context, f DocumentFilter) ([]models.Document, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 25
	}
	if f.Now.IsZero() {
		f.Now = time.Now().UTC()
	}

	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ids []uint
	if err := r.filtered(ctx, f).Order("created_at DESC, id DESC").Offset(f.Offset).Limit(f.Limit).Pluck("id", &ids).Error; err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Document{}, total, nil
	}

	var rows []models.Document
	err := r.aggregate(ctx).Where("id IN ?", ids).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, total, err
}

func (r *documentRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Document, error) {
	var rows []models.Document
	err := r.aggregate(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *documentRepo) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	out := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&models.DocumentFile{}).
		Where("file_hash IN ?", hashes).
		Pluck("file_hash", &found).Error
	if err != nil {
		return nil, err
	}
	for _, h := range found {
		out[h] = true
	}
	return out, nil
}

func (r *documentRepo) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *documentRepo) AppendVerification(ctx context.Context, v *models.DocumentVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *documentRepo) GetFile(ctx context.Context, documentID, fileID uint) (*models.DocumentFile, error) {
	var f models.DocumentFile
	err := r.db.WithContext(ctx).
		Where("id = ? AND document_id = ?", fileID, documentID).
		Take(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *documentRepo) UpdateFileDescription(ctx context.Context, documentID, fileID uint, description string) error {
	res := r.db.WithContext(ctx).
		Model(&models.DocumentFile{}).
		Where("id = ? AND document_id = ?", fileID, documentID).
		Update("description", description)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *documentRepo) SetPrimaryFile(ctx context.Context, documentID, fileID uint) error {
	if _, err := r.GetFile(ctx, documentID, fileID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentFile{}).
		Where("document_id = ? AND id <> ?", documentID, fileID).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.DocumentFile{}).
		Where("id = ?", fileID).
		Update("is_primary", true).Error
}

func (r *documentRepo) DeleteFiles(ctx context.Context, documentID uint) ([]models.DocumentFile, error) {
	var files []models.DocumentFile
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Find(&files).Error; err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return files, nil
	}
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&models.DocumentFile{}).Error
	return files, err
}

func (r *documentRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
