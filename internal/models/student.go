package models

import "time"

type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
	StudentEnrolled StudentStatus = "enrolled"
)

type Student struct {
	ID             uint          `gorm:"column:id;primaryKey" json:"id"`
	FirstName      string        `gorm:"column:first_name;size:120;not null" json:"first_name"`
	LastName       string        `gorm:"column:last_name;size:120;not null" json:"last_name"`
	Email          string        `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Phone          string        `gorm:"column:phone;size:32" json:"phone"`
	DateOfBirth    *time.Time    `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	Gender         string        `gorm:"column:gender;size:16" json:"gender"`
	PassportNumber string        `gorm:"column:passport_number;size:32" json:"passport_number"`
	Address        string        `gorm:"column:address;type:text" json:"address"`
	CountryID      uint          `gorm:"column:country_id;not null;index" json:"country_id"`
	StateID        *uint         `gorm:"column:state_id;index" json:"state_id,omitempty"`
	BranchID       uint          `gorm:"column:branch_id;not null;index" json:"branch_id"`
	AgentID        *uint         `gorm:"column:agent_id;index" json:"agent_id,omitempty"`
	PhotoPath      string        `gorm:"column:photo_path;size:512" json:"photo_path,omitempty"`
	Status         StudentStatus `gorm:"column:status;size:16;not null" json:"status"`
	CreatedAt      time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Student) TableName() string { return "students" }

func (s Student) FullName() string { return s.FirstName + " " + s.LastName }
