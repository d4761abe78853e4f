package services

import (
	"context"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	mongorepo "github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/mongo"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	LogDocuments    = "documents"
	LogCatalog      = "catalog"
	LogApplications = "applications"
)

type ActivityService interface {
	// Record never fails the caller; write errors are logged.
	Record(ctx context.Context, a models.Activity)
	ListForSubject(ctx context.Context, subjectType string, subjectID uint, limit int64) ([]models.Activity, error)
	ListByCauser(ctx context.Context, causerID uint, limit int64) ([]models.Activity, error)
}

type activityService struct {
	repo mongorepo.ActivityRepository
	log  *logrus.Entry
}

// NewActivityService accepts a nil repository, in which case nothing is recorded.
func NewActivityService(repo mongorepo.ActivityRepository, log logrus.FieldLogger) ActivityService {
	return &activityService{repo: repo, log: logger.Component(log, "activity")}
}

func (s *activityService) Record(ctx context.Context, a models.Activity) {
	if s.repo == nil {
		return
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	// the request may already be finishing; keep values, drop cancellation
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	if err := s.repo.Insert(wctx, &a); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":        a.Event,
			"subject_type": a.SubjectType,
			"subject_id":   a.SubjectID,
		}).Warn("failed to record activity")
	}
}

func (s *activityService) ListForSubject(ctx context.Context, subjectType string, subjectID uint, limit int64) ([]models.Activity, error) {
	const op = "ActivityService.ListForSubject"
	if s.repo == nil {
		return []models.Activity{}, nil
	}
	out, err := s.repo.ListForSubject(ctx, subjectType, subjectID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "activity log unavailable", err)
	}
	if out == nil {
		out = []models.Activity{}
	}
	return out, nil
}

func (s *activityService) ListByCauser(ctx context.Context, causerID uint, limit int64) ([]models.Activity, error) {
	const op = "ActivityService.ListByCauser"
	if s.repo == nil {
		return []models.Activity{}, nil
	}
	out, err := s.repo.ListByCauser(ctx, causerID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "activity log unavailable", err)
	}
	if out == nil {
		out = []models.Activity{}
	}
	return out, nil
}
