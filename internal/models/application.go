package models

import "time"

type ApplicationStatus string

const (
	ApplicationDraft         ApplicationStatus = "draft"
	ApplicationSubmitted     ApplicationStatus = "submitted"
	ApplicationOfferReceived ApplicationStatus = "offer_received"
	ApplicationAccepted      ApplicationStatus = "accepted"
	ApplicationRejected      ApplicationStatus = "rejected"
	ApplicationWithdrawn     ApplicationStatus = "withdrawn"
	ApplicationEnrolled      ApplicationStatus = "enrolled"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationDraft, ApplicationSubmitted, ApplicationOfferReceived, ApplicationAccepted,
		ApplicationRejected, ApplicationWithdrawn, ApplicationEnrolled:
		return true
	}
	return false
}

type VisaStatus string

const (
	VisaNotApplied VisaStatus = "not_applied"
	VisaApplied    VisaStatus = "applied"
	VisaApproved   VisaStatus = "approved"
	VisaRejected   VisaStatus = "rejected"
)

func (s VisaStatus) Valid() bool {
	switch s {
	case VisaNotApplied, VisaApplied, VisaApproved, VisaRejected:
		return true
	}
	return false
}

type PreDepartureStatus string

const (
	PreDeparturePending    PreDepartureStatus = "pending"
	PreDepartureInProgress PreDepartureStatus = "in_progress"
	PreDepartureCompleted  PreDepartureStatus = "completed"
)

func (s PreDepartureStatus) Valid() bool {
	switch s {
	case PreDeparturePending, PreDepartureInProgress, PreDepartureCompleted:
		return true
	}
	return false
}

type StudentApplication struct {
	ID                 uint               `gorm:"column:id;primaryKey" json:"id"`
	StudentID          uint               `gorm:"column:student_id;not null;index" json:"student_id"`
	UniversityID       uint               `gorm:"column:university_id;not null;index" json:"university_id"`
	CourseID           uint               `gorm:"column:course_id;not null;index" json:"course_id"`
	IntakeID           *uint              `gorm:"column:intake_id;index" json:"intake_id,omitempty"`
	ApplicationDate    time.Time          `gorm:"column:application_date" json:"application_date"`
	Status             ApplicationStatus  `gorm:"column:status;size:32;not null;index" json:"status"`
	VisaStatus         VisaStatus         `gorm:"column:visa_status;size:32;not null" json:"visa_status"`
	PreDepartureStatus PreDepartureStatus `gorm:"column:pre_departure_status;size:32;not null" json:"pre_departure_status"`
	TuitionFee         int64              `gorm:"column:tuition_fee;not null;default:0" json:"tuition_fee"`
	Currency           string             `gorm:"column:currency;size:3" json:"currency"`
	Notes              string             `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt          time.Time          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"column:updated_at" json:"updated_at"`

	Payments []ApplicationPayment `gorm:"foreignKey:ApplicationID" json:"payments"`
}

func (StudentApplication) TableName() string { return "student_applications" }

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	// PaymentOverdue is derived from the due date, never stored.
	PaymentOverdue PaymentStatus = "overdue"
)

type ApplicationPayment struct {
	ID            uint          `gorm:"column:id;primaryKey" json:"id"`
	ApplicationID uint          `gorm:"column:application_id;not null;index" json:"application_id"`
	Label         string        `gorm:"column:label;size:120" json:"label"`
	Amount        int64         `gorm:"column:amount;not null" json:"amount"`
	Currency      string        `gorm:"column:currency;size:3" json:"currency"`
	DueDate       time.Time     `gorm:"column:due_date;not null" json:"due_date"`
	Status        PaymentStatus `gorm:"column:status;size:16;not null" json:"status"`
	PaidAt        *time.Time    `gorm:"column:paid_at" json:"paid_at,omitempty"`
	Reference     string        `gorm:"column:reference;size:120" json:"reference,omitempty"`
	SortOrder     int           `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt     time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (ApplicationPayment) TableName() string { return "application_payments" }

// EffectiveStatus marks unpaid payments past their due day as overdue.
func (p ApplicationPayment) EffectiveStatus(now time.Time) PaymentStatus {
	if p.Status == PaymentPending {
		y, m, d := now.UTC().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if p.DueDate.UTC().Before(today) {
			return PaymentOverdue
		}
	}
	return p.Status
}
