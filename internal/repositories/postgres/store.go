package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"gorm.io/gorm"
)

// Store hands out repositories bound to one connection or transaction.
type Store interface {
	Documents() DocumentRepository
	Courses() CourseRepository
	Applications() ApplicationRepository

	// Dependents counts rows of model whose column references id.
	// withDeleted includes soft-deleted rows, which still hold their
	// foreign keys.
	Dependents(ctx context.Context, model any, column string, id uint, withDeleted bool) (int64, error)

	// Transaction runs fn against a Store bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	conn() *gorm.DB
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) conn() *gorm.DB { return s.db }

func (s *store) Documents() DocumentRepository       { return NewDocumentRepo(s.db) }
func (s *store) Courses() CourseRepository           { return NewCourseRepo(s.db) }
func (s *store) Applications() ApplicationRepository { return NewApplicationRepo(s.db) }

func (s *store) Dependents(ctx context.Context, model any, column string, id uint, withDeleted bool) (int64, error) {
	q := s.db.WithContext(ctx)
	if withDeleted {
		q = q.Unscoped()
	}
	var count int64
	err := q.Model(model).
		Where(column+" = ?", id).
		Count(&count).Error
	return count, err
}

func (s *store) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}

// Crud returns the generic repository for T on the store's connection.
func Crud[T any](s Store) CrudRepository[T] {
	return NewCrudRepo[T](s.conn())
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Country{},
		&models.State{},
		&models.Branch{},
		&models.Employee{},
		&models.Agent{},
		&models.University{},
		&models.Course{},
		&models.Intake{},
		&models.Student{},
		&models.DocumentType{},
		&models.Document{},
		&models.DocumentFile{},
		&models.DocumentVerification{},
		&models.StudentApplication{},
		&models.ApplicationPayment{},
	)
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return utils.ErrForeignKey
	}
	// drivers without an error translator
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return utils.ErrDuplicate
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "violates foreign key constraint") {
		return utils.ErrForeignKey
	}
	return err
}
