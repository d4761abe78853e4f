package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/sirupsen/logrus"
)

const subjectApplication = "application"

type ApplicationInput struct {
	StudentID       uint
	UniversityID    uint
	CourseID        uint
	IntakeID        *uint
	ApplicationDate *time.Time
	// TuitionFee defaults to the course fee when nil.
	TuitionFee *int64
	Currency   string
	Notes      string
}

type ScheduleInput struct {
	Total          int64
	Currency       string
	Installments   int
	FirstDue       time.Time
	IntervalMonths int
}

type PaymentView struct {
	models.ApplicationPayment
	EffectiveStatus models.PaymentStatus `json:"effective_status"`
}

type ApplicationView struct {
	models.StudentApplication
	Payments []PaymentView `json:"payments"`
}

type ApplicationService interface {
	Create(ctx context.Context, actorID uint, in ApplicationInput) (*models.StudentApplication, error)
	Get(ctx context.Context, id uint) (*models.StudentApplication, error)
	List(ctx context.Context, f postgres.ApplicationFilter) ([]ApplicationView, int64, error)
	Delete(ctx context.Context, actorID, id uint) error

	UpdateStatus(ctx context.Context, actorID, id uint, status models.ApplicationStatus) (*models.StudentApplication, error)
	UpdateVisaStatus(ctx context.Context, actorID, id uint, status models.VisaStatus) (*models.StudentApplication, error)
	UpdatePreDepartureStatus(ctx context.Context, actorID, id uint, status models.PreDepartureStatus) (*models.StudentApplication, error)

	SchedulePayments(ctx context.Context, actorID, id uint, in ScheduleInput) (*models.StudentApplication, error)
	MarkPaymentPaid(ctx context.Context, actorID, id, paymentID uint, reference string) (*models.StudentApplication, error)

	Present(a models.StudentApplication) ApplicationView
}

type applicationService struct {
	store    postgres.Store
	activity ActivityService
	log      *logrus.Entry
	now      func() time.Time
}

func NewApplicationService(store postgres.Store, activity ActivityService, log logrus.FieldLogger) ApplicationService {
	return &applicationService{
		store:    store,
		activity: activity,
		log:      logger.Component(log, "applications"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DerivePaymentStatus marks pending payments due before today as overdue.
func DerivePaymentStatus(p models.ApplicationPayment, now time.Time) models.PaymentStatus {
	return p.EffectiveStatus(now)
}

// SplitInstallments divides total into n equal parts, adding the remainder
// to the last one.
func SplitInstallments(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	out := make([]int64, n)
	base := total / int64(n)
	for i := range out {
		out[i] = base
	}
	out[n-1] += total - base*int64(n)
	return out
}

func (s *applicationService) Present(a models.StudentApplication) ApplicationView {
	now := s.now()
	v := ApplicationView{StudentApplication: a, Payments: make([]PaymentView, len(a.Payments))}
	for i, p := range a.Payments {
		v.Payments[i] = PaymentView{ApplicationPayment: p, EffectiveStatus: DerivePaymentStatus(p, now)}
	}
	return v
}

func (s *applicationService) Create(ctx context.Context, actorID uint, in ApplicationInput) (*models.StudentApplication, error) {
	const op = "ApplicationService.Create"

	err := newRefs(ctx, s.store).
		require(exists[models.Student], "student_id", in.StudentID).
		require(exists[models.University], "university_id", in.UniversityID).
		optional(exists[models.Intake], "intake_id", in.IntakeID).
		err()
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		return nil, invalid(op, ve)
	}
	if err != nil {
		return nil, storeErr(op, "", err)
	}

	course, err := postgres.Crud[models.Course](s.store).GetByID(ctx, in.CourseID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, fieldError(op, "course_id", "does not exist")
	}
	if err != nil {
		return nil, storeErr(op, "", err)
	}
	if course.UniversityID != in.UniversityID {
		return nil, fieldError(op, "course_id", "course is not offered by the selected university")
	}

	app := &models.StudentApplication{
		StudentID:          in.StudentID,
		UniversityID:       in.UniversityID,
		CourseID:           in.CourseID,
		IntakeID:           in.IntakeID,
		ApplicationDate:    s.now(),
		Status:             models.ApplicationDraft,
		VisaStatus:         models.VisaNotApplied,
		PreDepartureStatus: models.PreDeparturePending,
		TuitionFee:         course.TuitionFee,
		Currency:           course.Currency,
		Notes:              in.Notes,
	}
	if in.ApplicationDate != nil {
		app.ApplicationDate = in.ApplicationDate.UTC()
	}
	if in.TuitionFee != nil {
		if *in.TuitionFee < 0 {
			return nil, fieldError(op, "tuition_fee", "must not be negative")
		}
		app.TuitionFee = *in.TuitionFee
	}
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		app.Currency = c
	}

	if err := s.store.Applications().Create(ctx, app); err != nil {
		return nil, storeErr(op, "", err)
	}
	s.record(ctx, "application.created", "created application", app.ID, actorID, map[string]any{
		"student_id": app.StudentID,
		"course_id":  app.CourseID,
	})
	return s.Get(ctx, app.ID)
}

func (s *applicationService) Get(ctx context.Context, id uint) (*models.StudentApplication, error) {
	const op = "ApplicationService.Get"

	a, err := s.store.Applications().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(op, "application not found", err)
	}
	return a, nil
}

func (s *applicationService) List(ctx context.Context, f postgres.ApplicationFilter) ([]ApplicationView, int64, error) {
	const op = "ApplicationService.List"

	rows, total, err := s.store.Applications().List(ctx, f)
	if err != nil {
		return nil, 0, storeErr(op, "", err)
	}
	out := make([]ApplicationView, len(rows))
	for i := range rows {
		out[i] = s.Present(rows[i])
	}
	return out, total, nil
}

func (s *applicationService) Delete(ctx context.Context, actorID, id uint) error {
	const op = "ApplicationService.Delete"

	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		return tx.Applications().Delete(ctx, id)
	})
	if err != nil {
		return storeErr(op, "application not found", err)
	}
	s.record(ctx, "application.deleted", "deleted application", id, actorID, nil)
	return nil
}

func (s *applicationService) UpdateStatus(ctx context.Context, actorID, id uint, status models.ApplicationStatus) (*models.StudentApplication, error) {
	const op = "ApplicationService.UpdateStatus"
	if !status.Valid() {
		return nil, fieldError(op, "status", "unknown application status")
	}
	return s.setField(ctx, op, actorID, id, "status", string(status))
}

func (s *applicationService) UpdateVisaStatus(ctx context.Context, actorID, id uint, status models.VisaStatus) (*models.StudentApplication, error) {
	const op = "ApplicationService.UpdateVisaStatus"
	if !status.Valid() {
		return nil, fieldError(op, "visa_status", "unknown visa status")
	}
	return s.setField(ctx, op, actorID, id, "visa_status", string(status))
}

func (s *applicationService) UpdatePreDepartureStatus(ctx context.Context, actorID, id uint, status models.PreDepartureStatus) (*models.StudentApplication, error) {
	const op = "ApplicationService.UpdatePreDepartureStatus"
	if !status.Valid() {
		return nil, fieldError(op, "pre_departure_status", "unknown pre-departure status")
	}
	return s.setField(ctx, op, actorID, id, "pre_departure_status", string(status))
}

func (s *applicationService) setField(ctx context.Context, op string, actorID, id uint, column, value string) (*models.StudentApplication, error) {
	if err := s.store.Applications().UpdateFields(ctx, id, map[string]any{column: value}); err != nil {
		return nil, storeErr(op, "application not found", err)
	}
	s.record(ctx, "application."+column+"_changed", fmt.Sprintf("set %s to %s", column, value), id, actorID,
		map[string]any{column: value})
	return s.Get(ctx, id)
}

// SchedulePayments replaces every pending payment with a fresh schedule for
// what remains of total after the payments already made.
func (s *applicationService) SchedulePayments(ctx context.Context, actorID, id uint, in ScheduleInput) (*models.StudentApplication, error) {
	const op = "ApplicationService.SchedulePayments"

	fields := map[string]string{}
	if in.Total <= 0 {
		fields["total"] = "must be greater than zero"
	}
	if in.Installments < 1 || in.Installments > 60 {
		fields["installments"] = "must be between 1 and 60"
	}
	if in.IntervalMonths < 0 {
		fields["interval_months"] = "must not be negative"
	}
	if in.FirstDue.IsZero() {
		fields["first_due"] = "is required"
	}
	if len(fields) > 0 {
		return nil, invalid(op, &utils.ValidationError{Fields: fields})
	}
	if in.IntervalMonths == 0 {
		in.IntervalMonths = 1
	}

	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		app, err := tx.Applications().GetByID(ctx, id)
		if err != nil {
			return err
		}

		var paid int64
		paidCount := 0
		for _, p := range app.Payments {
			if p.Status == models.PaymentPaid {
				paid += p.Amount
				paidCount++
			}
		}
		remaining := in.Total - paid
		if remaining < 0 {
			return invalid(op, utils.NewValidationError("total",
				fmt.Sprintf("must not be less than the %d already paid", paid)))
		}

		currency := strings.ToUpper(strings.TrimSpace(in.Currency))
		if currency == "" {
			currency = app.Currency
		}

		var schedule []models.ApplicationPayment
		if remaining > 0 {
			amounts := SplitInstallments(remaining, in.Installments)
			first := in.FirstDue.UTC()
			for i, amt := range amounts {
				schedule = append(schedule, models.ApplicationPayment{
					Label:     fmt.Sprintf("Installment %d of %d", i+1, len(amounts)),
					Amount:    amt,
					Currency:  currency,
					DueDate:   addMonths(first, i*in.IntervalMonths),
					Status:    models.PaymentPending,
					SortOrder: paidCount + i,
				})
			}
		}
		return tx.Applications().ReplacePendingPayments(ctx, id, schedule)
	})
	if err != nil {
		return nil, storeErr(op, "application not found", err)
	}

	s.record(ctx, "application.payments_scheduled", "scheduled payments", id, actorID, map[string]any{
		"total":        in.Total,
		"installments": in.Installments,
	})
	return s.Get(ctx, id)
}

func (s *applicationService) MarkPaymentPaid(ctx context.Context, actorID, id, paymentID uint, reference string) (*models.StudentApplication, error) {
	const op = "ApplicationService.MarkPaymentPaid"

	err := s.store.Transaction(ctx, func(tx postgres.Store) error {
		app, err := tx.Applications().GetByID(ctx, id)
		if err != nil {
			return err
		}
		var target *models.ApplicationPayment
		for i := range app.Payments {
			if app.Payments[i].ID == paymentID {
				target = &app.Payments[i]
			}
		}
		if target == nil {
			return utils.E(utils.CodeNotFound, op, "payment not found", nil)
		}
		if target.Status == models.PaymentPaid {
			return invalid(op, utils.NewValidationError("payment", "payment is already paid"))
		}
		return tx.Applications().MarkPaymentPaid(ctx, id, paymentID, s.now(), strings.TrimSpace(reference))
	})
	if err != nil {
		return nil, storeErr(op, "application not found", err)
	}

	s.record(ctx, "application.payment_paid", fmt.Sprintf("marked payment %d as paid", paymentID), id, actorID,
		map[string]any{"payment_id": paymentID})
	return s.Get(ctx, id)
}

func (s *applicationService) record(ctx context.Context, event, desc string, id, actorID uint, props map[string]any) {
	s.activity.Record(ctx, models.Activity{
		LogName:     LogApplications,
		Event:       event,
		Description: desc,
		SubjectType: subjectApplication,
		SubjectID:   id,
		CausedBy:    actorID,
		Properties:  props,
	})
}

// addMonths moves t forward n calendar months, clamping the day to the end
// of the target month so Jan 31 + 1 lands on the last day of February.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
