package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
)

func TestSubmitUploadSingleFileType(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)

	_, err := f.docs.SubmitUpload(context.Background(), 9, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "Passport",
		Files: []FilePayload{file("a.pdf", "one"), file("b.pdf", "two")},
	})
	var tooMany *utils.TooManyFilesError
	asField(t, err, &tooMany)
	if tooMany.Max != 1 || tooMany.Count != 2 {
		t.Fatalf("unexpected error %+v", tooMany)
	}
	if n := count(t, f.db, &models.Document{}); n != 0 {
		t.Fatalf("documents persisted after failed validation: %d", n)
	}

	d := f.upload(t, dt, file("a.pdf", "one"))
	if d.Status != models.DocumentPending || len(d.Files) != 1 {
		t.Fatalf("unexpected document %+v", d)
	}
	if d.UploadedBy == nil || *d.UploadedBy != 9 {
		t.Fatalf("uploaded_by not recorded: %v", d.UploadedBy)
	}
	if d.DocumentType == nil || d.DocumentType.ID != dt.ID {
		t.Fatalf("aggregate missing document type")
	}
}

func TestSubmitUploadMaxFiles(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 2
	})

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "Transcripts",
		Files: []FilePayload{file("a.pdf", "1"), file("b.pdf", "2"), file("c.pdf", "3")},
	})
	var tooMany *utils.TooManyFilesError
	asField(t, err, &tooMany)
	if tooMany.Max != 2 {
		t.Fatalf("max = %d", tooMany.Max)
	}
}

func TestSubmitUploadRejectsExtension(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "Passport",
		Files: []FilePayload{file("setup.EXE", "MZ")},
	})
	var unsupported *utils.UnsupportedFileTypeError
	asField(t, err, &unsupported)
	if unsupported.Index != 0 || unsupported.Extension != "exe" {
		t.Fatalf("unexpected error %+v", unsupported)
	}

	fields, ok := utils.FieldErrors(unsupported)
	if !ok || fields["files.0"] == "" {
		t.Fatalf("expected files.0 field error, got %v", fields)
	}
}

func TestSubmitUploadExtensionIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)
	d := f.upload(t, dt, file("SCAN.PDF", "upper"))
	if d.Files[0].Extension != "pdf" {
		t.Fatalf("extension = %q", d.Files[0].Extension)
	}
}

func TestSubmitUploadSizeLimit(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil) // 1 KB

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "Passport",
		Files: []FilePayload{sized("big.pdf", 1025, "big")},
	})
	var tooLarge *utils.FileTooLargeError
	asField(t, err, &tooLarge)
	if tooLarge.MaxBytes != 1024 || tooLarge.Size != 1025 {
		t.Fatalf("unexpected error %+v", tooLarge)
	}

	d := f.upload(t, dt, sized("exact.pdf", 1024, "exact"))
	if d.Files[0].FileSize != 1024 {
		t.Fatalf("file size = %d", d.Files[0].FileSize)
	}
}

func TestSubmitUploadValidationOrder(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 3
	})

	// file 0 is too large, file 1 has a bad extension: the first failing
	// file wins, and for one file the extension is checked before size
	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x",
		Files: []FilePayload{sized("a.pdf", 4096, "a"), file("b.exe", "b")},
	})
	var tooLarge *utils.FileTooLargeError
	asField(t, err, &tooLarge)

	_, err = f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x",
		Files: []FilePayload{sized("a.exe", 4096, "a")},
	})
	var unsupported *utils.UnsupportedFileTypeError
	asField(t, err, &unsupported)
}

func TestSubmitUploadGlobalDuplicate(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)
	f.upload(t, dt, file("a.pdf", "same bytes"))

	other := models.Student{
		FirstName: "Ram", LastName: "K", Email: "ram@example.com",
		CountryID: f.country.ID, BranchID: f.branch.ID, Status: models.StudentActive,
	}
	mustCreate(t, f.db, &other)

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: other.ID, DocumentTypeID: dt.ID, Title: "Copy",
		Files: []FilePayload{file("renamed.pdf", "same bytes")},
	})
	var dup *utils.DuplicateFileError
	asField(t, err, &dup)
	if dup.Index != 0 || len(dup.Hash) != 64 {
		t.Fatalf("unexpected error %+v", dup)
	}
}

func TestSubmitUploadDuplicateWithinRequest(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 3
	})

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x",
		Files: []FilePayload{file("a.pdf", "x1"), file("b.pdf", "x2"), file("c.pdf", "x1")},
	})
	var dup *utils.DuplicateFileError
	asField(t, err, &dup)
	if dup.Index != 2 {
		t.Fatalf("index = %d", dup.Index)
	}
}

func TestSubmitUploadPrimaryAndOrder(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 3
	})

	cases := []struct {
		primary int
		want    int
	}{
		{primary: 2, want: 2},
		{primary: -1, want: 0},
		{primary: 7, want: 0},
	}
	for i, tc := range cases {
		d, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
			StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x",
			PrimaryFileIndex: tc.primary,
			Files: []FilePayload{
				file("a.pdf", uniq("a", i)), file("b.pdf", uniq("b", i)), file("c.pdf", uniq("c", i)),
			},
		})
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		primaries := 0
		for j, df := range d.Files {
			if df.SortOrder != j {
				t.Fatalf("case %d: sort order %d at %d", i, df.SortOrder, j)
			}
			if df.IsPrimary {
				primaries++
				if j != tc.want {
					t.Fatalf("case %d: primary at %d, want %d", i, j, tc.want)
				}
			}
		}
		if primaries != 1 {
			t.Fatalf("case %d: %d primary files", i, primaries)
		}
	}
}

func TestSubmitUploadRollsBackBlobsOnFailure(t *testing.T) {
	f := newFixture(t)
	blobs := &flakyBlobs{BlobStore: f.blobs, failOn: 2}
	f.docs.blobs = blobs
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 2
	})

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x",
		Files: []FilePayload{file("a.pdf", "first"), file("b.pdf", "second")},
	})
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if n := count(t, f.db, &models.Document{}); n != 0 {
		t.Fatalf("document row survived rollback")
	}
	if n := count(t, f.db, &models.DocumentFile{}); n != 0 {
		t.Fatalf("file rows survived rollback")
	}
	if len(blobs.paths) != 1 {
		t.Fatalf("expected one stored blob before failure, got %d", len(blobs.paths))
	}
	ok, err := f.blobs.Exists(context.Background(), blobs.paths[0])
	if err != nil || ok {
		t.Fatalf("orphaned blob left behind (exists=%v err=%v)", ok, err)
	}
}

func TestSubmitUploadUnknownReferences(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)

	_, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: 999, DocumentTypeID: dt.ID, Title: "x", Files: []FilePayload{file("a.pdf", "a")},
	})
	var ve *utils.ValidationError
	asField(t, err, &ve)
	if ve.Fields["student_id"] == "" {
		t.Fatalf("fields = %v", ve.Fields)
	}

	_, err = f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: 999, Title: "x", Files: []FilePayload{file("a.pdf", "a")},
	})
	asField(t, err, &ve)
	if ve.Fields["document_type_id"] == "" {
		t.Fatalf("fields = %v", ve.Fields)
	}
}

func TestVerifyRejectedRequiresReason(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))

	_, err := f.docs.Verify(context.Background(), VerifyInput{
		DocumentID: d.ID, ActorID: 4, Status: models.DecisionRejected, RejectionReason: "   ",
	})
	var missing *utils.MissingReasonError
	asField(t, err, &missing)

	got, err := f.docs.Verify(context.Background(), VerifyInput{
		DocumentID: d.ID, ActorID: 4, Status: models.DecisionRejected, RejectionReason: "Blurry scan",
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status != models.DocumentRejected || got.RejectionReason == nil || *got.RejectionReason != "Blurry scan" {
		t.Fatalf("unexpected document %+v", got)
	}
}

func TestVerifyApprovedMapsToVerified(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))

	got, err := f.docs.Verify(context.Background(), VerifyInput{
		DocumentID: d.ID, ActorID: 4, Status: models.DecisionApproved, Notes: "ok",
		Checklist: []models.ChecklistItem{{Item: "photo matches", Checked: true}},
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status != models.DocumentVerified {
		t.Fatalf("status = %q", got.Status)
	}
	if got.VerifiedBy == nil || *got.VerifiedBy != 4 || got.VerifiedAt == nil {
		t.Fatalf("verifier not cached on document")
	}
	if len(got.Verifications) != 1 || got.Verifications[0].Status != models.DecisionApproved {
		t.Fatalf("audit row = %+v", got.Verifications)
	}
	if len(got.Verifications[0].Checklist) != 1 || !got.Verifications[0].Checklist[0].Checked {
		t.Fatalf("checklist not stored: %+v", got.Verifications[0].Checklist)
	}
}

func TestVerifyUnknownStatus(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))

	_, err := f.docs.Verify(context.Background(), VerifyInput{DocumentID: d.ID, ActorID: 1, Status: "verified"})
	var ve *utils.ValidationError
	asField(t, err, &ve)
}

func TestVerifyUnknownDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.docs.Verify(context.Background(), VerifyInput{DocumentID: 404, ActorID: 1, Status: models.DecisionApproved})
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := count(t, f.db, &models.DocumentVerification{}); n != 0 {
		t.Fatalf("audit row written for unknown document")
	}
}

func TestSequentialVerifyKeepsHistory(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))

	if _, err := f.docs.Verify(context.Background(), VerifyInput{
		DocumentID: d.ID, ActorID: 1, Status: models.DecisionRejected, RejectionReason: "expired passport",
	}); err != nil {
		t.Fatal(err)
	}
	got, err := f.docs.Verify(context.Background(), VerifyInput{
		DocumentID: d.ID, ActorID: 2, Status: models.DecisionNeedsRevision, Notes: "upload the back page",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Verifications) != 2 {
		t.Fatalf("history rows = %d", len(got.Verifications))
	}
	if got.Verifications[0].Status != models.DecisionRejected || got.Verifications[1].Status != models.DecisionNeedsRevision {
		t.Fatalf("history order wrong: %+v", got.Verifications)
	}
	if got.Status != models.DocumentNeedsRevision || *got.VerifiedBy != 2 {
		t.Fatalf("cached fields not from last call: %+v", got)
	}
	if got.RejectionReason != nil {
		t.Fatalf("rejection reason should be cleared, got %q", *got.RejectionReason)
	}
}

func TestConcurrentVerifyKeepsBothAuditRows(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i, st := range []models.VerificationDecision{models.DecisionApproved, models.DecisionNeedsRevision} {
		wg.Add(1)
		go func(actor uint, st models.VerificationDecision) {
			defer wg.Done()
			_, err := f.docs.Verify(context.Background(), VerifyInput{DocumentID: d.ID, ActorID: actor, Status: st})
			errs <- err
		}(uint(i+1), st)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
	}

	got, err := f.docs.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Verifications) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(got.Verifications))
	}
	last := got.Verifications[1]
	if got.Status != last.Status.DocumentStatus() || *got.VerifiedBy != last.VerifiedBy {
		t.Fatalf("cached fields %q/%d do not match a completed call", got.Status, *got.VerifiedBy)
	}
}

func TestDeriveEffectiveStatusDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))
	if _, err := f.docs.Verify(context.Background(), VerifyInput{DocumentID: d.ID, ActorID: 1, Status: models.DecisionApproved}); err != nil {
		t.Fatal(err)
	}

	past := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := f.docs.UpdateDetails(context.Background(), 1, d.ID, DetailsInput{ExpiryDate: &past}); err != nil {
		t.Fatal(err)
	}

	got, err := f.docs.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s := DeriveEffectiveStatus(*got, time.Now()); s != models.DocumentExpired {
		t.Fatalf("effective status = %q", s)
	}
	if got.Status != models.DocumentVerified {
		t.Fatalf("stored status changed to %q", got.Status)
	}

	again, _ := f.docs.Get(context.Background(), d.ID)
	if again.Status != models.DocumentVerified {
		t.Fatalf("stored status changed after derivation: %q", again.Status)
	}

	future := time.Now().Add(24 * time.Hour)
	again.ExpiryDate = &future
	if s := DeriveEffectiveStatus(*again, time.Now()); s != models.DocumentVerified {
		t.Fatalf("effective status = %q before expiry", s)
	}
}

func TestListFiltersExpired(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)
	fresh := f.upload(t, dt, file("a.pdf", "fresh"))
	old := f.upload(t, dt, file("b.pdf", "old"))

	past := time.Now().UTC().Add(-24 * time.Hour)
	if _, err := f.docs.UpdateDetails(context.Background(), 1, old.ID, DetailsInput{ExpiryDate: &past}); err != nil {
		t.Fatal(err)
	}

	expired, total, err := f.docs.List(context.Background(), postgres.DocumentFilter{Status: models.DocumentExpired})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || expired[0].ID != old.ID || expired[0].EffectiveStatus != models.DocumentExpired {
		t.Fatalf("expired list = %+v", expired)
	}

	pending, total, err := f.docs.List(context.Background(), postgres.DocumentFilter{Status: models.DocumentPending})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || pending[0].ID != fresh.ID {
		t.Fatalf("pending list = %+v", pending)
	}
}

func TestStudentDocuments(t *testing.T) {
	f := newFixture(t)
	f.upload(t, f.docType(t, nil), file("a.pdf", "a"))

	views, err := f.docs.StudentDocuments(context.Background(), f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].EffectiveStatus != models.DocumentPending {
		t.Fatalf("views = %+v", views)
	}

	if _, err := f.docs.StudentDocuments(context.Background(), 999); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDownloadPrimaryAndSpecificFile(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 2
	})
	d, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x", PrimaryFileIndex: 1,
		Files: []FilePayload{file("front.pdf", "front"), file("back.pdf", "back")},
	})
	if err != nil {
		t.Fatal(err)
	}

	meta, rc, err := f.docs.Download(context.Background(), d.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if meta.OriginalFileName != "back.pdf" || string(b) != "back" {
		t.Fatalf("primary download = %s %q", meta.OriginalFileName, b)
	}

	meta, rc, err = f.docs.Download(context.Background(), d.ID, d.Files[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	b, _ = io.ReadAll(rc)
	_ = rc.Close()
	if meta.OriginalFileName != "front.pdf" || string(b) != "front" {
		t.Fatalf("file download = %s %q", meta.OriginalFileName, b)
	}

	if _, _, err := f.docs.Download(context.Background(), d.ID, 9999); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetPrimaryFileAndDescription(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, func(dt *models.DocumentType) {
		dt.AllowsMultipleFiles = true
		dt.MaxFiles = 2
	})
	d, err := f.docs.SubmitUpload(context.Background(), 1, UploadInput{
		StudentID: f.student.ID, DocumentTypeID: dt.ID, Title: "x", PrimaryFileIndex: -1,
		Files: []FilePayload{file("a.pdf", "aa"), file("b.pdf", "bb")},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.docs.SetPrimaryFile(context.Background(), 1, d.ID, d.Files[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Files[0].IsPrimary || !got.Files[1].IsPrimary {
		t.Fatalf("primary flags = %v/%v", got.Files[0].IsPrimary, got.Files[1].IsPrimary)
	}

	got, err = f.docs.UpdateFileDescription(context.Background(), 1, d.ID, d.Files[0].ID, "front page")
	if err != nil {
		t.Fatal(err)
	}
	if got.Files[0].Description != "front page" {
		t.Fatalf("description = %q", got.Files[0].Description)
	}

	if _, err := f.docs.SetPrimaryFile(context.Background(), 1, d.ID, 9999); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteDocumentKeepsHistoryAndFreesHashes(t *testing.T) {
	f := newFixture(t)
	dt := f.docType(t, nil)
	d := f.upload(t, dt, file("a.pdf", "reusable"))
	if _, err := f.docs.Verify(context.Background(), VerifyInput{DocumentID: d.ID, ActorID: 1, Status: models.DecisionApproved}); err != nil {
		t.Fatal(err)
	}
	path := d.Files[0].FilePath

	if err := f.docs.Delete(context.Background(), 1, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.docs.Get(context.Background(), d.ID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("deleted document still visible: %v", err)
	}
	if n := count(t, f.db, &models.DocumentVerification{}); n != 1 {
		t.Fatalf("verification history lost: %d rows", n)
	}
	if ok, _ := f.blobs.Exists(context.Background(), path); ok {
		t.Fatalf("blob not removed")
	}

	// the same bytes may be uploaded again once the old document is gone
	f.upload(t, dt, file("again.pdf", "reusable"))

	if err := f.docs.Delete(context.Background(), 1, d.ID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDocumentActivityIsRecorded(t *testing.T) {
	f := newFixture(t)
	d := f.upload(t, f.docType(t, nil), file("a.pdf", "a"))
	if _, err := f.docs.Verify(context.Background(), VerifyInput{DocumentID: d.ID, ActorID: 3, Status: models.DecisionApproved}); err != nil {
		t.Fatal(err)
	}

	events := f.activity.events()
	if len(events) != 2 || events[0] != "document.uploaded" || events[1] != "document.verified" {
		t.Fatalf("events = %v", events)
	}
}

func TestActivityFailureDoesNotFailUpload(t *testing.T) {
	f := newFixture(t)
	f.activity.fail = errors.New("mongo down")
	f.upload(t, f.docType(t, nil), file("a.pdf", "a"))
}
