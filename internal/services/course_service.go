package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/cache"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/sirupsen/logrus"
)

const courseCacheTTL = 10 * time.Minute

func coursesCacheKey(universityID uint) string {
	return fmt.Sprintf("courses:university:%d", universityID)
}

type CourseService interface {
	// CoursesByUniversity returns the active courses of a university by name.
	CoursesByUniversity(ctx context.Context, universityID uint) ([]models.Course, error)
	Invalidate(ctx context.Context, universityIDs ...uint)
}

type courseService struct {
	store postgres.Store
	cache cache.Cache
	log   *logrus.Entry
}

// NewCourseService works without a cache (c == nil); every lookup then hits the database.
func NewCourseService(store postgres.Store, c cache.Cache, log logrus.FieldLogger) CourseService {
	return &courseService{store: store, cache: c, log: logger.Component(log, "courses")}
}

func (s *courseService) CoursesByUniversity(ctx context.Context, universityID uint) ([]models.Course, error) {
	const op = "CourseService.CoursesByUniversity"

	ok, err := postgres.Crud[models.University](s.store).Exists(ctx, universityID)
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "university not found", nil)
	}

	courses, err := cache.Remember(ctx, s.cache, s.log, coursesCacheKey(universityID), courseCacheTTL,
		func(ctx context.Context) ([]models.Course, error) {
			rows, err := s.store.Courses().ListByUniversity(ctx, universityID, true)
			if rows == nil {
				rows = []models.Course{}
			}
			return rows, err
		})
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	return courses, nil
}

func (s *courseService) Invalidate(ctx context.Context, universityIDs ...uint) {
	keys := make([]string, 0, len(universityIDs))
	seen := map[uint]bool{}
	for _, id := range universityIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, coursesCacheKey(id))
	}
	cache.Forget(ctx, s.cache, s.log, keys...)
}
