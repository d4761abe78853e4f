package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/storage"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// one connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := postgres.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

// memActivity is an in-memory activity repository.
type memActivity struct {
	mu   sync.Mutex
	rows []models.Activity
	fail error
}

func (m *memActivity) Insert(_ context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memActivity) ListForSubject(_ context.Context, typ string, id uint, _ int64) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].SubjectType == typ && m.rows[i].SubjectID == id {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memActivity) ListByCauser(_ context.Context, causer uint, _ int64) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].CausedBy == causer {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memActivity) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Event
	}
	return out
}

// flakyBlobs fails the nth upload (1-based) and otherwise delegates.
type flakyBlobs struct {
	storage.BlobStore
	mu      sync.Mutex
	failOn  int
	uploads int
	paths   []string
}

func (f *flakyBlobs) Upload(ctx context.Context, key, ct string, r io.Reader) (string, error) {
	f.mu.Lock()
	f.uploads++
	n := f.uploads
	f.mu.Unlock()
	if n == f.failOn {
		return "", errors.New("bucket unavailable")
	}
	p, err := f.BlobStore.Upload(ctx, key, ct, r)
	if err == nil {
		f.mu.Lock()
		f.paths = append(f.paths, p)
		f.mu.Unlock()
	}
	return p, err
}

type fixture struct {
	db       *gorm.DB
	store    postgres.Store
	blobs    storage.BlobStore
	activity *memActivity
	docs     *documentService

	country models.Country
	branch  models.Branch
	student models.Student
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{db: db, store: postgres.NewStore(db), blobs: blobs, activity: &memActivity{}}
	f.docs = NewDocumentService(f.store, blobs, NewActivityService(f.activity, testLogger()), testLogger()).(*documentService)

	f.country = models.Country{Name: "Nepal", Code: "NP"}
	mustCreate(t, db, &f.country)
	f.branch = models.Branch{Name: "Kathmandu", Code: "KTM", CountryID: f.country.ID, IsActive: true}
	mustCreate(t, db, &f.branch)
	f.student = models.Student{
		FirstName: "Sita", LastName: "Sharma", Email: "sita@example.com",
		CountryID: f.country.ID, BranchID: f.branch.ID, Status: models.StudentActive,
	}
	mustCreate(t, db, &f.student)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) docType(t *testing.T, mutate func(*models.DocumentType)) models.DocumentType {
	t.Helper()
	dt := models.DocumentType{
		Name:             "Passport",
		Category:         models.CategoryIdentity,
		AllowedFileTypes: []string{"pdf", "jpg"},
		MaxFileSizeKB:    1,
		MaxFiles:         1,
		IsActive:         true,
	}
	if mutate != nil {
		mutate(&dt)
	}
	mustCreate(t, f.db, &dt)
	return dt
}

func file(name string, content string) FilePayload {
	return FilePayload{Name: name, Size: int64(len(content)), Reader: bytes.NewReader([]byte(content))}
}

func sized(name string, size int, seed string) FilePayload {
	b := bytes.Repeat([]byte{'x'}, size)
	copy(b, seed)
	return FilePayload{Name: name, Size: int64(size), Reader: bytes.NewReader(b)}
}

func (f *fixture) upload(t *testing.T, dt models.DocumentType, files ...FilePayload) *models.Document {
	t.Helper()
	d, err := f.docs.SubmitUpload(context.Background(), 9, UploadInput{
		StudentID:        f.student.ID,
		DocumentTypeID:   dt.ID,
		Title:            "Passport scan",
		PrimaryFileIndex: -1,
		Files:            files,
	})
	if err != nil {
		t.Fatalf("SubmitUpload: %v", err)
	}
	return d
}

func asField(t *testing.T, err error, target any) {
	t.Helper()
	if !utils.IsCode(err, utils.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !errors.As(err, target) {
		t.Fatalf("expected %T in chain, got %v", target, err)
	}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func uniq(prefix string, i int) string { return fmt.Sprintf("%s-%d", prefix, i) }
