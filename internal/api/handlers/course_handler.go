package handlers

import (
	"net/http"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	svc services.CourseService
}

func NewCourseHandler(svc services.CourseService) *CourseHandler {
	return &CourseHandler{svc: svc}
}

// ByUniversity lists the active courses of a university, served from cache.
func (h *CourseHandler) ByUniversity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	courses, err := h.svc.CoursesByUniversity(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": courses})
}
