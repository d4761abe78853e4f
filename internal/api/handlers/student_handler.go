package handlers

import (
	"net/http"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

// StudentHandler serves the student routes that are not plain CRUD.
type StudentHandler struct {
	students  services.StudentService
	documents services.DocumentService
	activity  services.ActivityService
}

func NewStudentHandler(students services.StudentService, documents services.DocumentService, activity services.ActivityService) *StudentHandler {
	return &StudentHandler{students: students, documents: documents, activity: activity}
}

func (h *StudentHandler) UploadPhoto(c *gin.Context) {
	const op = "StudentHandler.UploadPhoto"

	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		writeError(c, utils.Invalid(op, utils.NewValidationError("photo", "is required")))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unreadable upload", err))
		return
	}
	defer f.Close()

	st, err := h.students.UploadPhoto(c.Request.Context(), actorID, id, services.FilePayload{
		Name:   fh.Filename,
		Size:   fh.Size,
		Reader: f,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}

func (h *StudentHandler) Documents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	docs, err := h.documents.StudentDocuments(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

func (h *StudentHandler) Activity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rows, err := h.activity.ListForSubject(c.Request.Context(), "student", id, activityLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
