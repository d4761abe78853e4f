package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	svc      services.DocumentService
	activity services.ActivityService
}

func NewDocumentHandler(svc services.DocumentService, activity services.ActivityService) *DocumentHandler {
	return &DocumentHandler{svc: svc, activity: activity}
}

type uploadForm struct {
	StudentID        uint                    `form:"student_id" json:"student_id" binding:"required"`
	DocumentTypeID   uint                    `form:"document_type_id" json:"document_type_id" binding:"required"`
	Title            string                  `form:"title" json:"title"`
	Description      string                  `form:"description" json:"description"`
	ExpiryDate       string                  `form:"expiry_date" json:"expiry_date"`
	IsRequired       bool                    `form:"is_required" json:"is_required"`
	IsPublic         bool                    `form:"is_public" json:"is_public"`
	PrimaryFileIndex *int                    `form:"primary_file_index" json:"primary_file_index"`
	Files            []*multipart.FileHeader `form:"files" json:"files"`
	FileDescriptions []string                `form:"file_descriptions" json:"file_descriptions"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	const op = "DocumentHandler.Upload"

	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		writeBindError(c, err)
		return
	}
	expiry, err := parseDate(form.ExpiryDate)
	if err != nil {
		writeError(c, utils.Invalid(op, utils.NewValidationError("expiry_date", "must be a date (YYYY-MM-DD)")))
		return
	}

	in := services.UploadInput{
		StudentID:        form.StudentID,
		DocumentTypeID:   form.DocumentTypeID,
		Title:            form.Title,
		Description:      form.Description,
		ExpiryDate:       expiry,
		IsRequired:       form.IsRequired,
		IsPublic:         form.IsPublic,
		PrimaryFileIndex: -1,
	}
	if form.PrimaryFileIndex != nil {
		in.PrimaryFileIndex = *form.PrimaryFileIndex
	}

	for i, fh := range form.Files {
		f, err := fh.Open()
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "unreadable upload", err))
			return
		}
		defer f.Close()

		p := services.FilePayload{Name: fh.Filename, Size: fh.Size, Reader: f}
		if i < len(form.FileDescriptions) {
			p.Description = form.FileDescriptions[i]
		}
		in.Files = append(in.Files, p)
	}

	doc, err := h.svc.SubmitUpload(c.Request.Context(), actorID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": h.svc.Present(*doc)})
}

func (h *DocumentHandler) List(c *gin.Context) {
	page, perPage, offset := pageParams(c)
	f := postgres.DocumentFilter{
		StudentID:      queryUint(c, "student_id"),
		DocumentTypeID: queryUint(c, "document_type_id"),
		Status:         models.DocumentStatus(c.Query("status")),
		Offset:         offset,
		Limit:          perPage,
	}

	rows, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, rows, page, perPage, total)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*doc)})
}

type detailsRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	// An empty string clears the expiry date.
	ExpiryDate *string `json:"expiry_date"`
	IsRequired *bool   `json:"is_required"`
	IsPublic   *bool   `json:"is_public"`
}

func (h *DocumentHandler) Update(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req detailsRequest
	if !bindJSON(c, &req) {
		return
	}

	in := services.DetailsInput{
		Title:       req.Title,
		Description: req.Description,
		IsRequired:  req.IsRequired,
		IsPublic:    req.IsPublic,
	}
	if req.ExpiryDate != nil {
		t, err := parseDate(*req.ExpiryDate)
		if err != nil {
			writeError(c, utils.Invalid("DocumentHandler.Update", utils.NewValidationError("expiry_date", "must be a date (YYYY-MM-DD)")))
			return
		}
		in.ExpiryDate = t
		in.ClearExpiry = t == nil
	}

	doc, err := h.svc.UpdateDetails(c.Request.Context(), actorID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*doc)})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actorID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type verifyRequest struct {
	Status          string                 `json:"status" binding:"required,oneof=approved rejected needs_revision"`
	Notes           string                 `json:"notes"`
	RejectionReason string                 `json:"rejection_reason"`
	Checklist       []models.ChecklistItem `json:"checklist"`
}

func (h *DocumentHandler) Verify(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.svc.Verify(c.Request.Context(), services.VerifyInput{
		DocumentID:      id,
		ActorID:         actorID,
		Status:          models.VerificationDecision(req.Status),
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		Checklist:       req.Checklist,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*doc)})
}

// Download streams the primary file of a document.
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.stream(c, id, 0)
}

func (h *DocumentHandler) DownloadFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}
	h.stream(c, id, fileID)
}

func (h *DocumentHandler) stream(c *gin.Context, documentID, fileID uint) {
	f, rc, err := h.svc.Download(c.Request.Context(), documentID, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	ct := f.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, f.FileSize, ct, rc, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(f.OriginalFileName),
	})
}

type fileDescriptionRequest struct {
	Description string `json:"description" binding:"max=1000"`
}

func (h *DocumentHandler) UpdateFileDescription(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}
	var req fileDescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.svc.UpdateFileDescription(c.Request.Context(), actorID, id, fileID, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*doc)})
}

func (h *DocumentHandler) SetPrimaryFile(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}

	doc, err := h.svc.SetPrimaryFile(c.Request.Context(), actorID, id, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*doc)})
}

func (h *DocumentHandler) Activity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rows, err := h.activity.ListForSubject(c.Request.Context(), "document", id, activityLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func activityLimit(c *gin.Context) int64 {
	n, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || n < 1 {
		return 50
	}
	if n > 200 {
		return 200
	}
	return n
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Blank input yields nil.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, err
		}
	}
	t = t.UTC()
	return &t, nil
}

