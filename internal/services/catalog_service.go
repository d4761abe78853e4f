package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/sirupsen/logrus"
)

type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// CatalogConfig describes one reference-data entity.
type CatalogConfig[T any] struct {
	Entity string
	ID     func(*T) uint
	// Unique names the field reported when a unique index rejects a write.
	Unique string
	// Prepare validates references and fills defaults before create/update.
	Prepare func(ctx context.Context, s postgres.Store, row *T) error
	// OnChange runs after a successful commit. For updates it receives the
	// row before and after the change.
	OnChange func(ctx context.Context, kind ChangeKind, rows ...*T)
}

type CatalogService[T any] interface {
	List(ctx context.Context, q postgres.ListQuery) ([]T, int64, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, actorID uint, row *T) (*T, error)
	Update(ctx context.Context, actorID, id uint, apply func(*T)) (*T, error)
	Delete(ctx context.Context, actorID, id uint) error
}

type catalogService[T any] struct {
	cfg      CatalogConfig[T]
	store    postgres.Store
	activity ActivityService
	log      *logrus.Entry
}

func NewCatalogService[T any](cfg CatalogConfig[T], store postgres.Store, activity ActivityService, log logrus.FieldLogger) CatalogService[T] {
	return &catalogService[T]{
		cfg:      cfg,
		store:    store,
		activity: activity,
		log:      logger.Component(log, "catalog").WithField("entity", cfg.Entity),
	}
}

func (s *catalogService[T]) op(method string) string {
	return "CatalogService[" + s.cfg.Entity + "]." + method
}

func (s *catalogService[T]) List(ctx context.Context, q postgres.ListQuery) ([]T, int64, error) {
	rows, total, err := postgres.Crud[T](s.store).List(ctx, q)
	if err != nil {
		return nil, 0, storeErr(s.op("List"), "", err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, total, nil
}

func (s *catalogService[T]) Get(ctx context.Context, id uint) (*T, error) {
	row, err := postgres.Crud[T](s.store).GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(s.op("Get"), s.cfg.Entity+" not found", err)
	}
	return row, nil
}

func (s *catalogService[T]) Create(ctx context.Context, actorID uint, row *T) (*T, error) {
	op := s.op("Create")

	if err := s.prepare(ctx, op, row); err != nil {
		return nil, err
	}
	if err := postgres.Crud[T](s.store).Create(ctx, row); err != nil {
		return nil, s.writeErr(op, err)
	}

	s.record(ctx, Created, actorID, row)
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(ctx, Created, row)
	}
	return row, nil
}

func (s *catalogService[T]) Update(ctx context.Context, actorID, id uint, apply func(*T)) (*T, error) {
	op := s.op("Update")

	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *row
	apply(row)

	if err := s.prepare(ctx, op, row); err != nil {
		return nil, err
	}
	if err := postgres.Crud[T](s.store).Update(ctx, row); err != nil {
		return nil, s.writeErr(op, err)
	}

	s.record(ctx, Updated, actorID, row)
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(ctx, Updated, &before, row)
	}
	return row, nil
}

func (s *catalogService[T]) Delete(ctx context.Context, actorID, id uint) error {
	op := s.op("Delete")

	var row *T
	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		r, err := postgres.Crud[T](tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := GuardDelete(ctx, tx, s.cfg.Entity, id); err != nil {
			return err
		}
		row = r
		return postgres.Crud[T](tx).Delete(ctx, id)
	})

	if errors.Is(err, utils.ErrForeignKey) {
		// a relation the guard does not know about
		err = &utils.ReferentialIntegrityError{Entity: s.cfg.Entity, Relations: []string{"records"}}
	}
	var rie *utils.ReferentialIntegrityError
	if errors.As(err, &rie) {
		return utils.E(utils.CodeConflict, op, rie.Error(), rie)
	}
	if err != nil {
		return storeErr(op, s.cfg.Entity+" not found", err)
	}

	s.record(ctx, Deleted, actorID, row)
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(ctx, Deleted, row)
	}
	return nil
}

func (s *catalogService[T]) prepare(ctx context.Context, op string, row *T) error {
	if s.cfg.Prepare == nil {
		return nil
	}
	err := s.cfg.Prepare(ctx, s.store, row)
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		return invalid(op, ve)
	}
	if err != nil {
		return storeErr(op, "", err)
	}
	return nil
}

func (s *catalogService[T]) writeErr(op string, err error) error {
	if errors.Is(err, utils.ErrDuplicate) {
		field := s.cfg.Unique
		if field == "" {
			field = "id"
		}
		return fieldError(op, field, "has already been taken")
	}
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, s.cfg.Entity+" not found", err)
	}
	s.log.WithError(err).Error("write failed")
	return storeErr(op, "", err)
}

func (s *catalogService[T]) record(ctx context.Context, kind ChangeKind, actorID uint, row *T) {
	if s.activity == nil {
		return
	}
	var id uint
	if s.cfg.ID != nil {
		id = s.cfg.ID(row)
	}
	subject := strings.ReplaceAll(s.cfg.Entity, " ", "_")
	s.activity.Record(ctx, models.Activity{
		LogName:     LogCatalog,
		Event:       fmt.Sprintf("%s.%s", subject, kind),
		Description: fmt.Sprintf("%s %s", kind, s.cfg.Entity),
		SubjectType: subject,
		SubjectID:   id,
		CausedBy:    actorID,
	})
}
