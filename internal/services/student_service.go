package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/storage"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const maxPhotoBytes = 2 * 1024 * 1024

var photoTypes = models.DocumentType{AllowedFileTypes: []string{"jpg", "jpeg", "png", "webp"}}

type StudentService interface {
	UploadPhoto(ctx context.Context, actorID, studentID uint, photo FilePayload) (*models.Student, error)
	// RemovePhoto deletes the photo blob of a student that no longer exists.
	RemovePhoto(ctx context.Context, st *models.Student)
}

type studentService struct {
	store    postgres.Store
	blobs    storage.BlobStore
	activity ActivityService
	log      *logrus.Entry
}

func NewStudentService(store postgres.Store, blobs storage.BlobStore, activity ActivityService, log logrus.FieldLogger) StudentService {
	return &studentService{store: store, blobs: blobs, activity: activity, log: logger.Component(log, "students")}
}

func (s *studentService) UploadPhoto(ctx context.Context, actorID, studentID uint, photo FilePayload) (*models.Student, error) {
	const op = "StudentService.UploadPhoto"

	ext := photo.ext()
	if !photoTypes.Allows(ext) {
		return nil, fieldError(op, "photo", "photo must be a jpg, jpeg, png or webp image")
	}
	if photo.Size > maxPhotoBytes {
		return nil, fieldError(op, "photo", "photo may not be larger than 2 MB")
	}
	if photo.Reader == nil {
		return nil, fieldError(op, "photo", "photo is required")
	}

	mt, err := mimetype.DetectReader(photo.Reader)
	if err != nil {
		return nil, fieldError(op, "photo", "photo could not be read")
	}
	if !mt.Is("image/jpeg") && !mt.Is("image/png") && !mt.Is("image/webp") {
		return nil, fieldError(op, "photo", "photo content is not an image")
	}
	if _, err := photo.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "internal error", err)
	}

	students := postgres.Crud[models.Student](s.store)
	st, err := students.GetByID(ctx, studentID)
	if err != nil {
		return nil, storeErr(op, "student not found", err)
	}

	key := storage.ObjectKey(fmt.Sprintf("students/%d/photo", studentID), ext)
	path, err := s.blobs.Upload(ctx, key, mt.String(), photo.Reader)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store photo", err)
	}

	previous := st.PhotoPath
	st.PhotoPath = path
	st.UpdatedAt = time.Now().UTC()
	if err := students.Update(ctx, st); err != nil {
		s.removeBlob(ctx, path)
		return nil, storeErr(op, "student not found", err)
	}
	if previous != "" && previous != path {
		s.removeBlob(ctx, previous)
	}

	s.activity.Record(ctx, models.Activity{
		LogName:     LogCatalog,
		Event:       "student.photo_updated",
		Description: "updated student photo",
		SubjectType: EntityStudent,
		SubjectID:   studentID,
		CausedBy:    actorID,
	})
	return st, nil
}

func (s *studentService) RemovePhoto(ctx context.Context, st *models.Student) {
	if st == nil || st.PhotoPath == "" {
		return
	}
	s.removeBlob(ctx, st.PhotoPath)
}

func (s *studentService) removeBlob(ctx context.Context, path string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), path); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("failed to delete photo blob")
	}
}
