package handlers

import (
	"net/http"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	svc services.ActivityService
}

func NewActivityHandler(svc services.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// Mine lists what the authenticated user has done, newest first.
func (h *ActivityHandler) Mine(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListByCauser(c.Request.Context(), actorID, activityLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
