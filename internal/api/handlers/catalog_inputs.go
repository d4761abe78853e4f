package handlers

import (
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
)

type CountryInput struct {
	Name      string `json:"name" binding:"required,max=120"`
	Code      string `json:"code" binding:"required,min=2,max=3"`
	PhoneCode string `json:"phone_code" binding:"max=8"`
	Currency  string `json:"currency" binding:"omitempty,len=3"`
}

func (in *CountryInput) Apply(r *models.Country) {
	r.Name, r.Code, r.PhoneCode, r.Currency = in.Name, in.Code, in.PhoneCode, in.Currency
}

type StateInput struct {
	CountryID uint   `json:"country_id" binding:"required"`
	Name      string `json:"name" binding:"required,max=120"`
	Code      string `json:"code" binding:"max=16"`
}

func (in *StateInput) Apply(r *models.State) {
	r.CountryID, r.Name, r.Code = in.CountryID, in.Name, in.Code
}

type BranchInput struct {
	Name      string `json:"name" binding:"required,max=255"`
	Code      string `json:"code" binding:"required,max=32"`
	CountryID uint   `json:"country_id" binding:"required"`
	StateID   *uint  `json:"state_id"`
	City      string `json:"city" binding:"max=120"`
	Address   string `json:"address"`
	Phone     string `json:"phone" binding:"max=32"`
	Email     string `json:"email" binding:"omitempty,email"`
	IsActive  *bool  `json:"is_active"`
}

func (in *BranchInput) Apply(r *models.Branch) {
	r.Name, r.Code, r.CountryID, r.StateID = in.Name, in.Code, in.CountryID, in.StateID
	r.City, r.Address, r.Phone, r.Email = in.City, in.Address, in.Phone, in.Email
	r.IsActive = boolOr(in.IsActive, true)
}

type UniversityInput struct {
	Name      string `json:"name" binding:"required,max=255"`
	CountryID uint   `json:"country_id" binding:"required"`
	StateID   *uint  `json:"state_id"`
	City      string `json:"city" binding:"max=120"`
	Website   string `json:"website" binding:"omitempty,url"`
	Ranking   *int   `json:"ranking" binding:"omitempty,min=1"`
	IsActive  *bool  `json:"is_active"`
}

func (in *UniversityInput) Apply(r *models.University) {
	r.Name, r.CountryID, r.StateID, r.City = in.Name, in.CountryID, in.StateID, in.City
	r.Website, r.Ranking = in.Website, in.Ranking
	r.IsActive = boolOr(in.IsActive, true)
}

type CourseInput struct {
	UniversityID   uint   `json:"university_id" binding:"required"`
	Name           string `json:"name" binding:"required,max=255"`
	Level          string `json:"level" binding:"required,oneof=certificate foundation diploma bachelor master doctorate"`
	DurationMonths int    `json:"duration_months" binding:"min=0,max=120"`
	TuitionFee     int64  `json:"tuition_fee" binding:"min=0"`
	Currency       string `json:"currency" binding:"omitempty,len=3"`
	IsActive       *bool  `json:"is_active"`
}

func (in *CourseInput) Apply(r *models.Course) {
	r.UniversityID, r.Name, r.Level = in.UniversityID, in.Name, models.CourseLevel(in.Level)
	r.DurationMonths, r.TuitionFee, r.Currency = in.DurationMonths, in.TuitionFee, in.Currency
	r.IsActive = boolOr(in.IsActive, true)
}

type IntakeInput struct {
	Name                string     `json:"name" binding:"required,max=120"`
	Month               int        `json:"month" binding:"required,min=1,max=12"`
	Year                int        `json:"year" binding:"required,min=2000,max=2100"`
	StartDate           *time.Time `json:"start_date"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	IsActive            *bool      `json:"is_active"`
}

func (in *IntakeInput) Apply(r *models.Intake) {
	r.Name, r.Month, r.Year = in.Name, in.Month, in.Year
	r.StartDate, r.ApplicationDeadline = in.StartDate, in.ApplicationDeadline
	r.IsActive = boolOr(in.IsActive, true)
}

type AgentInput struct {
	Name           string  `json:"name" binding:"required,max=255"`
	Email          string  `json:"email" binding:"required,email"`
	Phone          string  `json:"phone" binding:"max=32"`
	CompanyName    string  `json:"company_name" binding:"max=255"`
	BranchID       *uint   `json:"branch_id"`
	CommissionRate float64 `json:"commission_rate" binding:"min=0,max=100"`
	IsActive       *bool   `json:"is_active"`
}

func (in *AgentInput) Apply(r *models.Agent) {
	r.Name, r.Email, r.Phone, r.CompanyName = in.Name, in.Email, in.Phone, in.CompanyName
	r.BranchID, r.CommissionRate = in.BranchID, in.CommissionRate
	r.IsActive = boolOr(in.IsActive, true)
}

type EmployeeInput struct {
	BranchID  uint   `json:"branch_id" binding:"required"`
	FirstName string `json:"first_name" binding:"required,max=120"`
	LastName  string `json:"last_name" binding:"required,max=120"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"max=32"`
	Position  string `json:"position" binding:"max=120"`
	IsActive  *bool  `json:"is_active"`
}

func (in *EmployeeInput) Apply(r *models.Employee) {
	r.BranchID, r.FirstName, r.LastName, r.Email = in.BranchID, in.FirstName, in.LastName, in.Email
	r.Phone, r.Position = in.Phone, in.Position
	r.IsActive = boolOr(in.IsActive, true)
}

type DocumentTypeInput struct {
	Name                string   `json:"name" binding:"required,max=255"`
	Description         string   `json:"description"`
	Category            string   `json:"category" binding:"omitempty,oneof=academic financial identity medical visa language experience recommendation personal travel accommodation other"`
	AllowedFileTypes    []string `json:"allowed_file_types" binding:"required,min=1,dive,required,max=10"`
	MaxFileSize         int64    `json:"max_file_size" binding:"required,min=1"`
	IsRequired          bool     `json:"is_required"`
	HasExpiry           bool     `json:"has_expiry"`
	AllowsMultipleFiles bool     `json:"allows_multiple_files"`
	MaxFiles            int      `json:"max_files" binding:"required,min=1,max=50"`
	IsActive            *bool    `json:"is_active"`
}

func (in *DocumentTypeInput) Apply(r *models.DocumentType) {
	r.Name, r.Description, r.Category = in.Name, in.Description, models.DocumentCategory(in.Category)
	r.AllowedFileTypes, r.MaxFileSizeKB = in.AllowedFileTypes, in.MaxFileSize
	r.IsRequired, r.HasExpiry = in.IsRequired, in.HasExpiry
	r.AllowsMultipleFiles, r.MaxFiles = in.AllowsMultipleFiles, in.MaxFiles
	r.IsActive = boolOr(in.IsActive, true)
}

type StudentInput struct {
	FirstName      string     `json:"first_name" binding:"required,max=120"`
	LastName       string     `json:"last_name" binding:"required,max=120"`
	Email          string     `json:"email" binding:"required,email"`
	Phone          string     `json:"phone" binding:"max=32"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         string     `json:"gender" binding:"omitempty,oneof=male female other"`
	PassportNumber string     `json:"passport_number" binding:"max=32"`
	Address        string     `json:"address"`
	CountryID      uint       `json:"country_id" binding:"required"`
	StateID        *uint      `json:"state_id"`
	BranchID       uint       `json:"branch_id" binding:"required"`
	AgentID        *uint      `json:"agent_id"`
	Status         string     `json:"status" binding:"omitempty,oneof=active inactive enrolled"`
}

func (in *StudentInput) Apply(r *models.Student) {
	r.FirstName, r.LastName, r.Email, r.Phone = in.FirstName, in.LastName, in.Email, in.Phone
	r.DateOfBirth, r.Gender, r.PassportNumber, r.Address = in.DateOfBirth, in.Gender, in.PassportNumber, in.Address
	r.CountryID, r.StateID, r.BranchID, r.AgentID = in.CountryID, in.StateID, in.BranchID, in.AgentID
	r.Status = models.StudentStatus(in.Status)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
