package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
)

func TestSplitInstallments(t *testing.T) {
	cases := []struct {
		total int64
		n     int
		want  []int64
	}{
		{1000, 4, []int64{250, 250, 250, 250}},
		{1000, 3, []int64{333, 333, 334}},
		{5, 1, []int64{5}},
		{2, 3, []int64{0, 0, 2}},
	}
	for _, tc := range cases {
		got := SplitInstallments(tc.total, tc.n)
		if len(got) != len(tc.want) {
			t.Fatalf("split(%d,%d) = %v", tc.total, tc.n, got)
		}
		var sum int64
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("split(%d,%d) = %v, want %v", tc.total, tc.n, got, tc.want)
			}
			sum += got[i]
		}
		if sum != tc.total {
			t.Fatalf("split(%d,%d) sums to %d", tc.total, tc.n, sum)
		}
	}
	if SplitInstallments(10, 0) != nil {
		t.Fatalf("zero installments should yield nil")
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := models.ApplicationPayment{Status: models.PaymentPending, DueDate: now.AddDate(0, 0, -1)}
	today := models.ApplicationPayment{Status: models.PaymentPending, DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	paid := models.ApplicationPayment{Status: models.PaymentPaid, DueDate: now.AddDate(0, -1, 0)}

	if s := DerivePaymentStatus(yesterday, now); s != models.PaymentOverdue {
		t.Fatalf("yesterday = %s", s)
	}
	if s := DerivePaymentStatus(today, now); s != models.PaymentPending {
		t.Fatalf("due today = %s", s)
	}
	if s := DerivePaymentStatus(paid, now); s != models.PaymentPaid {
		t.Fatalf("paid = %s", s)
	}
}

type appFixture struct {
	*fixture
	apps   *applicationService
	uni    models.University
	course models.Course
}

func newAppFixture(t *testing.T) *appFixture {
	f := newFixture(t)
	af := &appFixture{fixture: f}
	af.apps = NewApplicationService(f.store, NewActivityService(f.activity, testLogger()), testLogger()).(*applicationService)
	af.uni = models.University{Name: "UTS", CountryID: f.country.ID, IsActive: true}
	mustCreate(t, f.db, &af.uni)
	af.course = models.Course{UniversityID: af.uni.ID, Name: "MIT", Level: models.LevelMaster, TuitionFee: 4_000_000, Currency: "AUD", IsActive: true}
	mustCreate(t, f.db, &af.course)
	return af
}

func (af *appFixture) create(t *testing.T) *models.StudentApplication {
	t.Helper()
	a, err := af.apps.Create(context.Background(), 1, ApplicationInput{
		StudentID: af.student.ID, UniversityID: af.uni.ID, CourseID: af.course.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return a
}

func TestCreateApplicationDefaults(t *testing.T) {
	af := newAppFixture(t)
	a := af.create(t)

	if a.Status != models.ApplicationDraft || a.VisaStatus != models.VisaNotApplied || a.PreDepartureStatus != models.PreDeparturePending {
		t.Fatalf("defaults = %s/%s/%s", a.Status, a.VisaStatus, a.PreDepartureStatus)
	}
	if a.TuitionFee != 4_000_000 || a.Currency != "AUD" {
		t.Fatalf("fee not copied from course: %d %s", a.TuitionFee, a.Currency)
	}
}

func TestCreateApplicationCourseMustBelongToUniversity(t *testing.T) {
	af := newAppFixture(t)
	other := models.University{Name: "Other", CountryID: af.country.ID}
	mustCreate(t, af.db, &other)

	_, err := af.apps.Create(context.Background(), 1, ApplicationInput{
		StudentID: af.student.ID, UniversityID: other.ID, CourseID: af.course.ID,
	})
	var ve *utils.ValidationError
	if !errors.As(err, &ve) || ve.Fields["course_id"] == "" {
		t.Fatalf("expected course_id error, got %v", err)
	}

	_, err = af.apps.Create(context.Background(), 1, ApplicationInput{
		StudentID: 999, UniversityID: af.uni.ID, CourseID: af.course.ID,
	})
	if !errors.As(err, &ve) || ve.Fields["student_id"] == "" {
		t.Fatalf("expected student_id error, got %v", err)
	}
}

func TestApplicationStatusUpdates(t *testing.T) {
	af := newAppFixture(t)
	a := af.create(t)
	ctx := context.Background()

	got, err := af.apps.UpdateStatus(ctx, 1, a.ID, models.ApplicationSubmitted)
	if err != nil || got.Status != models.ApplicationSubmitted {
		t.Fatalf("UpdateStatus = %v, %v", got, err)
	}
	got, err = af.apps.UpdateVisaStatus(ctx, 1, a.ID, models.VisaApplied)
	if err != nil || got.VisaStatus != models.VisaApplied {
		t.Fatalf("UpdateVisaStatus = %v, %v", got, err)
	}
	got, err = af.apps.UpdatePreDepartureStatus(ctx, 1, a.ID, models.PreDepartureCompleted)
	if err != nil || got.PreDepartureStatus != models.PreDepartureCompleted {
		t.Fatalf("UpdatePreDepartureStatus = %v, %v", got, err)
	}

	if _, err := af.apps.UpdateVisaStatus(ctx, 1, a.ID, "granted"); !utils.IsCode(err, utils.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := af.apps.UpdateStatus(ctx, 1, 999, models.ApplicationSubmitted); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSchedulePaymentsKeepsPaidAndSplitsRemainder(t *testing.T) {
	af := newAppFixture(t)
	a := af.create(t)
	ctx := context.Background()
	first := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	got, err := af.apps.SchedulePayments(ctx, 1, a.ID, ScheduleInput{Total: 1000, Installments: 2, FirstDue: first, IntervalMonths: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Payments) != 2 || got.Payments[0].Amount != 500 || got.Payments[0].Currency != "AUD" {
		t.Fatalf("payments = %+v", got.Payments)
	}
	if !got.Payments[1].DueDate.Equal(first.AddDate(0, 1, 0)) {
		t.Fatalf("second due = %v", got.Payments[1].DueDate)
	}

	got, err = af.apps.MarkPaymentPaid(ctx, 1, a.ID, got.Payments[0].ID, "TXN-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Payments[0].Status != models.PaymentPaid || got.Payments[0].PaidAt == nil || got.Payments[0].Reference != "TXN-1" {
		t.Fatalf("paid payment = %+v", got.Payments[0])
	}
	if _, err := af.apps.MarkPaymentPaid(ctx, 1, a.ID, got.Payments[0].ID, "again"); !utils.IsCode(err, utils.CodeValidation) {
		t.Fatalf("expected validation error on double payment, got %v", err)
	}

	// 500 paid, 1000 remaining over 3 installments
	got, err = af.apps.SchedulePayments(ctx, 1, a.ID, ScheduleInput{Total: 1500, Installments: 3, FirstDue: first.AddDate(0, 2, 0)})
	if err != nil {
		t.Fatal(err)
	}
	var paid, pending []int64
	for _, p := range got.Payments {
		if p.Status == models.PaymentPaid {
			paid = append(paid, p.Amount)
		} else {
			pending = append(pending, p.Amount)
		}
	}
	if len(paid) != 1 || paid[0] != 500 {
		t.Fatalf("paid = %v", paid)
	}
	if len(pending) != 3 || pending[0] != 333 || pending[2] != 334 {
		t.Fatalf("pending = %v", pending)
	}

	if _, err := af.apps.SchedulePayments(ctx, 1, a.ID, ScheduleInput{Total: 100, Installments: 1, FirstDue: first}); !utils.IsCode(err, utils.CodeValidation) {
		t.Fatalf("expected validation error when total < paid, got %v", err)
	}
}

func TestListApplicationsPresentsOverdue(t *testing.T) {
	af := newAppFixture(t)
	a := af.create(t)
	ctx := context.Background()

	if _, err := af.apps.SchedulePayments(ctx, 1, a.ID, ScheduleInput{
		Total: 100, Installments: 1, FirstDue: time.Now().UTC().AddDate(0, 0, -3),
	}); err != nil {
		t.Fatal(err)
	}

	views, total, err := af.apps.List(ctx, postgres.ApplicationFilter{StudentID: af.student.ID})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(views[0].Payments) != 1 || views[0].Payments[0].EffectiveStatus != models.PaymentOverdue {
		t.Fatalf("views = %+v", views)
	}
	if views[0].Payments[0].Status != models.PaymentPending {
		t.Fatalf("stored status changed: %s", views[0].Payments[0].Status)
	}
}

func TestDeleteApplicationRemovesPayments(t *testing.T) {
	af := newAppFixture(t)
	a := af.create(t)
	ctx := context.Background()
	if _, err := af.apps.SchedulePayments(ctx, 1, a.ID, ScheduleInput{Total: 100, Installments: 2, FirstDue: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if err := af.apps.Delete(ctx, 1, a.ID); err != nil {
		t.Fatal(err)
	}
	if n := count(t, af.db, &models.ApplicationPayment{}); n != 0 {
		t.Fatalf("payments left: %d", n)
	}
	if err := af.apps.Delete(ctx, 1, a.ID); !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 9, 30, 0, 0, time.UTC) }
	cases := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{day(2026, time.January, 31), 1, day(2026, time.February, 28)},
		{day(2028, time.January, 31), 1, day(2028, time.February, 29)},
		{day(2026, time.January, 31), 2, day(2026, time.March, 31)},
		{day(2026, time.August, 31), 1, day(2026, time.September, 30)},
		{day(2026, time.November, 30), 3, day(2027, time.February, 28)},
		{day(2026, time.January, 15), 0, day(2026, time.January, 15)},
		{day(2026, time.December, 31), 12, day(2027, time.December, 31)},
	}
	for _, tc := range cases {
		if got := addMonths(tc.from, tc.n); !got.Equal(tc.want) {
			t.Errorf("addMonths(%s, %d) = %s, want %s", tc.from.Format(time.DateOnly), tc.n, got, tc.want)
		}
	}
}

func TestSchedulePaymentsFromMonthEnd(t *testing.T) {
	af := newAppFixture(t)
	a := af.create(t)
	first := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)

	got, err := af.apps.SchedulePayments(context.Background(), 1, a.ID, ScheduleInput{Total: 300, Installments: 3, FirstDue: first, IntervalMonths: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2027-01-31", "2027-02-28", "2027-03-31"}
	if len(got.Payments) != len(want) {
		t.Fatalf("payments = %+v", got.Payments)
	}
	for i, p := range got.Payments {
		if d := p.DueDate.UTC().Format(time.DateOnly); d != want[i] {
			t.Fatalf("installment %d due %s, want %s", i+1, d, want[i])
		}
	}
}
