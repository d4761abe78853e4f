package handlers

import (
	"net/http"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	svc services.ApplicationService
}

func NewApplicationHandler(svc services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

type applicationRequest struct {
	StudentID       uint   `json:"student_id" binding:"required"`
	UniversityID    uint   `json:"university_id" binding:"required"`
	CourseID        uint   `json:"course_id" binding:"required"`
	IntakeID        *uint  `json:"intake_id"`
	ApplicationDate string `json:"application_date"`
	TuitionFee      *int64 `json:"tuition_fee" binding:"omitempty,min=0"`
	Currency        string `json:"currency" binding:"omitempty,len=3"`
	Notes           string `json:"notes"`
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	var req applicationRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.ApplicationDate)
	if err != nil {
		writeError(c, utils.Invalid("ApplicationHandler.Create", utils.NewValidationError("application_date", "must be a date (YYYY-MM-DD)")))
		return
	}

	app, err := h.svc.Create(c.Request.Context(), actorID, services.ApplicationInput{
		StudentID:       req.StudentID,
		UniversityID:    req.UniversityID,
		CourseID:        req.CourseID,
		IntakeID:        req.IntakeID,
		ApplicationDate: date,
		TuitionFee:      req.TuitionFee,
		Currency:        req.Currency,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": h.svc.Present(*app)})
}

func (h *ApplicationHandler) List(c *gin.Context) {
	page, perPage, offset := pageParams(c)
	rows, total, err := h.svc.List(c.Request.Context(), postgres.ApplicationFilter{
		StudentID:    queryUint(c, "student_id"),
		UniversityID: queryUint(c, "university_id"),
		Status:       models.ApplicationStatus(c.Query("status")),
		VisaStatus:   models.VisaStatus(c.Query("visa_status")),
		Offset:       offset,
		Limit:        perPage,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, rows, page, perPage, total)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	app, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*app)})
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
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

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Status kinds accepted by UpdateStatus.
const (
	StatusApplication  = "status"
	StatusVisa         = "visa_status"
	StatusPreDeparture = "pre_departure_status"
)

// UpdateStatus returns the handler for one of the three status columns.
func (h *ApplicationHandler) UpdateStatus(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := requireActorID(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req statusRequest
		if !bindJSON(c, &req) {
			return
		}

		var (
			app *models.StudentApplication
			err error
			ctx = c.Request.Context()
		)
		switch kind {
		case StatusVisa:
			app, err = h.svc.UpdateVisaStatus(ctx, actorID, id, models.VisaStatus(req.Status))
		case StatusPreDeparture:
			app, err = h.svc.UpdatePreDepartureStatus(ctx, actorID, id, models.PreDepartureStatus(req.Status))
		default:
			app, err = h.svc.UpdateStatus(ctx, actorID, id, models.ApplicationStatus(req.Status))
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*app)})
	}
}

type scheduleRequest struct {
	Total          int64  `json:"total" binding:"required,min=1"`
	Currency       string `json:"currency" binding:"omitempty,len=3"`
	Installments   int    `json:"installments" binding:"required,min=1,max=60"`
	FirstDue       string `json:"first_due" binding:"required"`
	IntervalMonths int    `json:"interval_months" binding:"min=0,max=24"`
}

func (h *ApplicationHandler) SchedulePayments(c *gin.Context) {
	const op = "ApplicationHandler.SchedulePayments"

	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req scheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	due, err := parseDate(req.FirstDue)
	if err != nil || due == nil {
		writeError(c, utils.Invalid(op, utils.NewValidationError("first_due", "must be a date (YYYY-MM-DD)")))
		return
	}

	app, err := h.svc.SchedulePayments(c.Request.Context(), actorID, id, services.ScheduleInput{
		Total:          req.Total,
		Currency:       req.Currency,
		Installments:   req.Installments,
		FirstDue:       *due,
		IntervalMonths: req.IntervalMonths,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*app)})
}

type paymentRequest struct {
	Reference string `json:"reference" binding:"max=120"`
}

func (h *ApplicationHandler) MarkPaymentPaid(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := parseID(c, "paymentId")
	if !ok {
		return
	}
	var req paymentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	app, err := h.svc.MarkPaymentPaid(c.Request.Context(), actorID, id, paymentID, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.svc.Present(*app)})
}
