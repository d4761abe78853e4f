package postgres

import (
	"context"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListQuery struct {
	Offset int
	Limit  int
	// Equality filters keyed by column name.
	Filters map[string]any
	// Search is matched with LIKE against every SearchColumns entry.
	Search        string
	SearchColumns []string
	Order         string
}

type CrudRepository[T any] interface {
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	GetByID(ctx context.Context, id uint) (*T, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, row *T) error
	Delete(ctx context.Context, id uint) error
}

type crudRepo[T any] struct {
	db *gorm.DB
}

func NewCrudRepo[T any](db *gorm.DB) CrudRepository[T] {
	return &crudRepo[T]{db: db}
}

func (r *crudRepo[T]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	if q.Limit <= 0 {
		q.Limit = 25
	}
	if q.Order == "" {
		q.Order = "id DESC"
	}

	var total int64
	if err := r.query(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []T
	err := r.query(ctx, q).Order(q.Order).Offset(q.Offset).Limit(q.Limit).Find(&rows).Error
	return rows, total, err
}

func (r *crudRepo[T]) query(ctx context.Context, q ListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	for col, v := range q.Filters {
		tx = tx.Where(col+" = ?", v)
	}
	if q.Search != "" && len(q.SearchColumns) > 0 {
		like := "%" + q.Search + "%"
		or := r.db.Where(q.SearchColumns[0]+" LIKE ?", like)
		for _, col := range q.SearchColumns[1:] {
			or = or.Or(col+" LIKE ?", like)
		}
		tx = tx.Where(or)
	}
	return tx
}

func (r *crudRepo[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *crudRepo[T]) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *crudRepo[T]) Create(ctx context.Context, row *T) error {
	return translate(r.db.WithContext(ctx).Create(row).Error)
}

// Update writes every column of row. A row that no longer exists is
// reported as ErrNotFound rather than inserted again.
func (r *crudRepo[T]) Update(ctx context.Context, row *T) error {
	res := r.db.WithContext(ctx).Model(row).Select("*").Omit(clause.Associations).Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *crudRepo[T]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
