package postgres

import (
	"context"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"gorm.io/gorm"
)

type CourseRepository interface {
	ListByUniversity(ctx context.Context, universityID uint, activeOnly bool) ([]models.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) ListByUniversity(ctx context.Context, universityID uint, activeOnly bool) ([]models.Course, error) {
	tx := r.db.WithContext(ctx).Where("university_id = ?", universityID)
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var rows []models.Course
	err := tx.Order("name ASC, id ASC").Find(&rows).Error
	return rows, err
}
