package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/storage"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const subjectDocument = "document"

// FilePayload is one uploaded file. Reader must be rewindable: it is read
// once for hashing and again for the blob upload.
type FilePayload struct {
	Name        string
	Extension   string // optional; derived from Name when empty
	Size        int64
	Description string
	Reader      io.ReadSeeker
}

func (p FilePayload) ext() string {
	if p.Extension != "" {
		return models.NormalizeExtension(p.Extension)
	}
	return models.NormalizeExtension(filepath.Ext(p.Name))
}

type UploadInput struct {
	StudentID      uint
	DocumentTypeID uint
	Title          string
	Description    string
	ExpiryDate     *time.Time
	IsRequired     bool
	IsPublic       bool
	// PrimaryFileIndex < 0 means unspecified; out-of-range falls back to 0.
	PrimaryFileIndex int
	Files            []FilePayload
}

type VerifyInput struct {
	DocumentID      uint
	ActorID         uint
	Status          models.VerificationDecision
	Notes           string
	RejectionReason string
	Checklist       []models.ChecklistItem
}

// DetailsInput updates only the non-nil fields.
type DetailsInput struct {
	Title       *string
	Description *string
	ExpiryDate  *time.Time
	ClearExpiry bool
	IsRequired  *bool
	IsPublic    *bool
}

// DocumentView is a document as presented, with the derived status.
type DocumentView struct {
	models.Document
	EffectiveStatus models.DocumentStatus `json:"effective_status"`
}

type DocumentService interface {
	SubmitUpload(ctx context.Context, actorID uint, in UploadInput) (*models.Document, error)
	Verify(ctx context.Context, in VerifyInput) (*models.Document, error)

	Get(ctx context.Context, id uint) (*models.Document, error)
	List(ctx context.Context, f postgres.DocumentFilter) ([]DocumentView, int64, error)
	StudentDocuments(ctx context.Context, studentID uint) ([]DocumentView, error)
	Download(ctx context.Context, documentID, fileID uint) (*models.DocumentFile, io.ReadCloser, error)
	UpdateDetails(ctx context.Context, actorID, id uint, in DetailsInput) (*models.Document, error)
	UpdateFileDescription(ctx context.Context, actorID, documentID, fileID uint, description string) (*models.Document, error)
	SetPrimaryFile(ctx context.Context, actorID, documentID, fileID uint) (*models.Document, error)
	Delete(ctx context.Context, actorID, id uint) error

	Present(d models.Document) DocumentView
}

type documentService struct {
	store    postgres.Store
	blobs    storage.BlobStore
	activity ActivityService
	log      *logrus.Entry
	now      func() time.Time
}

func NewDocumentService(store postgres.Store, blobs storage.BlobStore, activity ActivityService, log logrus.FieldLogger) DocumentService {
	return &documentService{
		store:    store,
		blobs:    blobs,
		activity: activity,
		log:      logger.Component(log, "documents"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DeriveEffectiveStatus reports "expired" for documents past their expiry
// date and the stored status otherwise. It never modifies d.
func DeriveEffectiveStatus(d models.Document, now time.Time) models.DocumentStatus {
	return d.EffectiveStatus(now)
}

func (s *documentService) Present(d models.Document) DocumentView {
	return DocumentView{Document: d, EffectiveStatus: DeriveEffectiveStatus(d, s.now())}
}

type preparedFile struct {
	payload FilePayload
	ext     string
	hash    string
	mime    string
}

func (s *documentService) SubmitUpload(ctx context.Context, actorID uint, in UploadInput) (*models.Document, error) {
	const op = "DocumentService.SubmitUpload"

	in.Title = strings.TrimSpace(in.Title)
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "title is required"
	}
	if len(in.Files) == 0 {
		fields["files"] = "at least one file is required"
	}
	if len(fields) > 0 {
		return nil, invalid(op, &utils.ValidationError{Fields: fields})
	}

	if ok, err := postgres.Crud[models.Student](s.store).Exists(ctx, in.StudentID); err != nil {
		return nil, storeErr(op, "", err)
	} else if !ok {
		return nil, fieldError(op, "student_id", "student does not exist")
	}

	dt, err := postgres.Crud[models.DocumentType](s.store).GetByID(ctx, in.DocumentTypeID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, fieldError(op, "document_type_id", "document type does not exist")
	}
	if err != nil {
		return nil, storeErr(op, "", err)
	}

	prepared, err := s.validateFiles(*dt, in.Files)
	if err != nil {
		return nil, invalid(op, err)
	}

	existing, err := s.store.Documents().ExistingHashes(ctx, hashesOf(prepared))
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	for i, p := range prepared {
		if existing[p.hash] {
			return nil, invalid(op, &utils.DuplicateFileError{Index: i, Hash: p.hash})
		}
	}

	primary := in.PrimaryFileIndex
	if primary < 0 || primary >= len(prepared) {
		primary = 0
	}

	doc := &models.Document{
		StudentID:      in.StudentID,
		DocumentTypeID: dt.ID,
		Title:          in.Title,
		Description:    in.Description,
		ExpiryDate:     utcPtr(in.ExpiryDate),
		Status:         models.DocumentPending,
		IsRequired:     in.IsRequired,
		IsPublic:       in.IsPublic,
		UploadedBy:     actorPtr(actorID),
	}

	var uploaded []string
	err = s.store.Transaction(ctx, func(tx postgres.Store) error {
		if err := tx.Documents().Create(ctx, doc); err != nil {
			return err
		}
		for i, p := range prepared {
			if _, err := p.payload.Reader.Seek(0, io.SeekStart); err != nil {
				return err
			}
			key := storage.ObjectKey(fmt.Sprintf("documents/%d", in.StudentID), p.ext)
			path, err := s.blobs.Upload(ctx, key, p.mime, p.payload.Reader)
			if err != nil {
				return utils.E(utils.CodeUnavailable, op, "failed to store file", err)
			}
			uploaded = append(uploaded, path)

			f := &models.DocumentFile{
				DocumentID:       doc.ID,
				FilePath:         path,
				OriginalFileName: p.payload.Name,
				Extension:        p.ext,
				FileSize:         p.payload.Size,
				MimeType:         p.mime,
				FileHash:         p.hash,
				Description:      p.payload.Description,
				IsPrimary:        i == primary,
				SortOrder:        i,
			}
			if err := tx.Documents().CreateFile(ctx, f); err != nil {
				if errors.Is(err, utils.ErrDuplicate) {
					// lost a race with a concurrent upload of the same bytes
					return invalid(op, &utils.DuplicateFileError{Index: i, Hash: p.hash})
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, uploaded)
		if !utils.IsCode(err, utils.CodeValidation) {
			s.log.WithError(err).WithFields(logrus.Fields{
				"student_id":       in.StudentID,
				"document_type_id": in.DocumentTypeID,
			}).Error("document upload failed")
		}
		return nil, storeErr(op, "", err)
	}

	s.activity.Record(ctx, models.Activity{
		LogName:     LogDocuments,
		Event:       "document.uploaded",
		Description: fmt.Sprintf("uploaded %q with %d file(s)", doc.Title, len(prepared)),
		SubjectType: subjectDocument,
		SubjectID:   doc.ID,
		CausedBy:    actorID,
		Properties: map[string]any{
			"student_id":       doc.StudentID,
			"document_type_id": doc.DocumentTypeID,
			"files":            len(prepared),
		},
	})
	s.log.WithFields(logrus.Fields{"document_id": doc.ID, "files": len(prepared)}).Info("document uploaded")

	return s.Get(ctx, doc.ID)
}

// validateFiles applies the document type's rules in a fixed order: file
// count, then per file extension and size, then content hashes.
func (s *documentService) validateFiles(dt models.DocumentType, files []FilePayload) ([]preparedFile, error) {
	if !dt.AllowsMultipleFiles && len(files) != 1 {
		return nil, &utils.TooManyFilesError{Count: len(files), Max: 1}
	}
	if dt.MaxFiles > 0 && len(files) > dt.MaxFiles {
		return nil, &utils.TooManyFilesError{Count: len(files), Max: dt.MaxFiles}
	}

	maxBytes := dt.MaxFileSizeBytes()
	out := make([]preparedFile, len(files))
	for i, f := range files {
		ext := f.ext()
		if !dt.Allows(ext) {
			return nil, &utils.UnsupportedFileTypeError{Index: i, Extension: ext, Allowed: dt.AllowedFileTypes}
		}
		if f.Size > maxBytes {
			return nil, &utils.FileTooLargeError{Index: i, Size: f.Size, MaxBytes: maxBytes}
		}
		out[i] = preparedFile{payload: f, ext: ext}
	}

	seen := make(map[string]int, len(out))
	for i := range out {
		hash, mime, err := fingerprint(out[i].payload.Reader)
		if err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("files.%d", i), "file could not be read")
		}
		if _, dup := seen[hash]; dup {
			return nil, &utils.DuplicateFileError{Index: i, Hash: hash}
		}
		seen[hash] = i
		out[i].hash = hash
		out[i].mime = mime
	}
	return out, nil
}

// fingerprint returns the sha256 hex digest and sniffed MIME type of r,
// leaving r rewound.
func fingerprint(r io.ReadSeeker) (string, string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(h.Sum(nil)), mt.String(), nil
}

func hashesOf(files []preparedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.hash
	}
	return out
}

// discard deletes blobs written by a failed or removed document.
func (s *documentService) discard(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := storage.DeleteAll(context.WithoutCancel(ctx), s.blobs, paths); err != nil {
		s.log.WithError(err).WithField("paths", paths).Warn("failed to remove orphaned blobs")
	}
}

func (s *documentService) Verify(ctx context.Context, in VerifyInput) (*models.Document, error) {
	const op = "DocumentService.Verify"

	if !in.Status.Valid() {
		return nil, fieldError(op, "status", "status must be one of approved, rejected, needs_revision")
	}
	reason := strings.TrimSpace(in.RejectionReason)
	if in.Status == models.DecisionRejected && reason == "" {
		return nil, invalid(op, &utils.MissingReasonError{})
	}

	now := s.now()
	var docReason *string
	if in.Status == models.DecisionRejected {
		docReason = &reason
	}
	var auditReason *string
	if reason != "" {
		auditReason = &reason
	}

	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		if err := tx.Documents().UpdateFields(ctx, in.DocumentID, map[string]any{
			"status":           in.Status.DocumentStatus(),
			"rejection_reason": docReason,
			"verified_at":      now,
			"verified_by":      in.ActorID,
		}); err != nil {
			return err
		}
		return tx.Documents().AppendVerification(ctx, &models.DocumentVerification{
			DocumentID:      in.DocumentID,
			VerifiedBy:      in.ActorID,
			Status:          in.Status,
			Notes:           in.Notes,
			RejectionReason: auditReason,
			Checklist:       in.Checklist,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, storeErr(op, "document not found", err)
	}

	s.activity.Record(ctx, models.Activity{
		LogName:     LogDocuments,
		Event:       "document.verified",
		Description: fmt.Sprintf("marked document as %s", in.Status.DocumentStatus()),
		SubjectType: subjectDocument,
		SubjectID:   in.DocumentID,
		CausedBy:    in.ActorID,
		Properties:  map[string]any{"status": string(in.Status)},
	})

	return s.Get(ctx, in.DocumentID)
}

func (s *documentService) Get(ctx context.Context, id uint) (*models.Document, error) {
	const op = "DocumentService.Get"

	d, err := s.store.Documents().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(op, "document not found", err)
	}
	return d, nil
}

func (s *documentService) List(ctx context.Context, f postgres.DocumentFilter) ([]DocumentView, int64, error) {
	const op = "DocumentService.List"

	if f.Now.IsZero() {
		f.Now = s.now()
	}
	rows, total, err := s.store.Documents().List(ctx, f)
	if err != nil {
		return nil, 0, storeErr(op, "", err)
	}
	return s.presentAll(rows), total, nil
}

func (s *documentService) StudentDocuments(ctx context.Context, studentID uint) ([]DocumentView, error) {
	const op = "DocumentService.StudentDocuments"

	ok, err := postgres.Crud[models.Student](s.store).Exists(ctx, studentID)
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "student not found", nil)
	}
	rows, err := s.store.Documents().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	return s.presentAll(rows), nil
}

func (s *documentService) presentAll(rows []models.Document) []DocumentView {
	out := make([]DocumentView, len(rows))
	for i := range rows {
		out[i] = s.Present(rows[i])
	}
	return out
}

// Download streams one file of a document; fileID 0 selects the primary file.
func (s *documentService) Download(ctx context.Context, documentID, fileID uint) (*models.DocumentFile, io.ReadCloser, error) {
	const op = "DocumentService.Download"

	var file *models.DocumentFile
	if fileID == 0 {
		d, err := s.Get(ctx, documentID)
		if err != nil {
			return nil, nil, err
		}
		if file = d.PrimaryFile(); file == nil {
			return nil, nil, utils.E(utils.CodeNotFound, op, "document has no files", nil)
		}
	} else {
		f, err := s.store.Documents().GetFile(ctx, documentID, fileID)
		if err != nil {
			return nil, nil, storeErr(op, "file not found", err)
		}
		file = f
	}

	rc, err := s.blobs.Download(ctx, file.FilePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		s.log.WithFields(logrus.Fields{"document_id": documentID, "file_id": file.ID}).Error("blob missing for stored file")
		return nil, nil, utils.E(utils.CodeNotFound, op, "file content not found", err)
	}
	if err != nil {
		return nil, nil, utils.E(utils.CodeUnavailable, op, "file storage unavailable", err)
	}
	return file, rc, nil
}

func (s *documentService) UpdateDetails(ctx context.Context, actorID, id uint, in DetailsInput) (*models.Document, error) {
	const op = "DocumentService.UpdateDetails"

	fields := map[string]any{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, fieldError(op, "title", "title is required")
		}
		fields["title"] = t
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	switch {
	case in.ClearExpiry:
		fields["expiry_date"] = nil
	case in.ExpiryDate != nil:
		fields["expiry_date"] = in.ExpiryDate.UTC()
	}
	if in.IsRequired != nil {
		fields["is_required"] = *in.IsRequired
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	if err := s.store.Documents().UpdateFields(ctx, id, fields); err != nil {
		return nil, storeErr(op, "document not found", err)
	}
	s.recordDocEvent(ctx, "document.updated", "updated document details", id, actorID)
	return s.Get(ctx, id)
}

func (s *documentService) UpdateFileDescription(ctx context.Context, actorID, documentID, fileID uint, description string) (*models.Document, error) {
	const op = "DocumentService.UpdateFileDescription"

	if err := s.store.Documents().UpdateFileDescription(ctx, documentID, fileID, description); err != nil {
		return nil, storeErr(op, "file not found", err)
	}
	s.recordDocEvent(ctx, "document.file_updated", fmt.Sprintf("updated description of file %d", fileID), documentID, actorID)
	return s.Get(ctx, documentID)
}

func (s *documentService) SetPrimaryFile(ctx context.Context, actorID, documentID, fileID uint) (*models.Document, error) {
	const op = "DocumentService.SetPrimaryFile"

	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		return tx.Documents().SetPrimaryFile(ctx, documentID, fileID)
	})
	if err != nil {
		return nil, storeErr(op, "file not found", err)
	}
	s.recordDocEvent(ctx, "document.primary_changed", fmt.Sprintf("set file %d as primary", fileID), documentID, actorID)
	return s.Get(ctx, documentID)
}

// Delete removes the files and soft-deletes the document so its
// verification history stays attached. Blobs go after the commit.
func (s *documentService) Delete(ctx context.Context, actorID, id uint) error {
	const op = "DocumentService.Delete"

	var removed []models.DocumentFile
	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		if _, err := tx.Documents().GetByID(ctx, id); err != nil {
			return err
		}
		files, err := tx.Documents().DeleteFiles(ctx, id)
		if err != nil {
			return err
		}
		removed = files
		return tx.Documents().Delete(ctx, id)
	})
	if err != nil {
		return storeErr(op, "document not found", err)
	}

	paths := make([]string, len(removed))
	for i, f := range removed {
		paths[i] = f.FilePath
	}
	s.discard(ctx, paths)

	s.recordDocEvent(ctx, "document.deleted", "deleted document", id, actorID)
	return nil
}

func (s *documentService) recordDocEvent(ctx context.Context, event, desc string, id, actorID uint) {
	s.activity.Record(ctx, models.Activity{
		LogName:     LogDocuments,
		Event:       event,
		Description: desc,
		SubjectType: subjectDocument,
		SubjectID:   id,
		CausedBy:    actorID,
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func actorPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
