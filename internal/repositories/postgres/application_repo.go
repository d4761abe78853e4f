package postgres

import (
	"context"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"gorm.io/gorm"
)

type ApplicationFilter struct {
	StudentID    uint
	UniversityID uint
	Status       models.ApplicationStatus
	VisaStatus   models.VisaStatus
	Offset       int
	Limit        int
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.StudentApplication) error
	GetByID(ctx context.Context, id uint) (*models.StudentApplication, error)
	List(ctx context.Context, f ApplicationFilter) ([]models.StudentApplication, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	ReplacePendingPayments(ctx context.Context, applicationID uint, payments []models.ApplicationPayment) error
	MarkPaymentPaid(ctx context.Context, applicationID, paymentID uint, paidAt time.Time, reference string) error
	Delete(ctx context.Context, id uint) error
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) withPayments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("due_date ASC, sort_order ASC, id ASC")
	})
}

func (r *applicationRepo) Create(ctx context.Context, a *models.StudentApplication) error {
	return translate(r.db.WithContext(ctx).Omit("Payments").Create(a).Error)
}

func (r *applicationRepo) GetByID(ctx context.Context, id uint) (*models.StudentApplication, error) {
	var a models.StudentApplication
	if err := r.withPayments(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *applicationRepo) filtered(ctx context.Context, f ApplicationFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.StudentApplication{})
	if f.StudentID != 0 {
		tx = tx.Where("student_id = ?", f.StudentID)
	}
	if f.UniversityID != 0 {
		tx = tx.Where("university_id = ?", f.UniversityID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.VisaStatus != "" {
		tx = tx.Where("visa_status = ?", f.VisaStatus)
	}
	return tx
}

func (r *applicationRepo) List(ctx context.Context, f ApplicationFilter) ([]models.StudentApplication, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 25
	}
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.StudentApplication
	err := r.filtered(ctx, f).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date ASC, sort_order ASC, id ASC")
		}).
		Order("id DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *applicationRepo) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.StudentApplication{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *applicationRepo) ReplacePendingPayments(ctx context.Context, applicationID uint, payments []models.ApplicationPayment) error {
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND status = ?", applicationID, models.PaymentPending).
		Delete(&models.ApplicationPayment{}).Error
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}
	for i := range payments {
		payments[i].ApplicationID = applicationID
	}
	return r.db.WithContext(ctx).Create(&payments).Error
}

func (r *applicationRepo) MarkPaymentPaid(ctx context.Context, applicationID, paymentID uint, paidAt time.Time, reference string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ApplicationPayment{}).
		Where("id = ? AND application_id = ?", paymentID, applicationID).
		Updates(map[string]any{
			"status":    models.PaymentPaid,
			"paid_at":   paidAt,
			"reference": reference,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *applicationRepo) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("application_id = ?", id).Delete(&models.ApplicationPayment{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StudentApplication{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
