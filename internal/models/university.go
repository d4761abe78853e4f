package models

import "time"

type University struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	CountryID uint      `gorm:"column:country_id;not null;index" json:"country_id"`
	StateID   *uint     `gorm:"column:state_id;index" json:"state_id,omitempty"`
	City      string    `gorm:"column:city;size:120" json:"city"`
	Website   string    `gorm:"column:website;size:255" json:"website"`
	Ranking   *int      `gorm:"column:ranking" json:"ranking,omitempty"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (University) TableName() string { return "universities" }

type CourseLevel string

const (
	LevelCertificate CourseLevel = "certificate"
	LevelFoundation  CourseLevel = "foundation"
	LevelDiploma     CourseLevel = "diploma"
	LevelBachelor    CourseLevel = "bachelor"
	LevelMaster      CourseLevel = "master"
	LevelDoctorate   CourseLevel = "doctorate"
)

func (l CourseLevel) Valid() bool {
	switch l {
	case LevelCertificate, LevelFoundation, LevelDiploma, LevelBachelor, LevelMaster, LevelDoctorate:
		return true
	}
	return false
}

type Course struct {
	ID             uint        `gorm:"column:id;primaryKey" json:"id"`
	UniversityID   uint        `gorm:"column:university_id;not null;index" json:"university_id"`
	Name           string      `gorm:"column:name;size:255;not null" json:"name"`
	Level          CourseLevel `gorm:"column:level;size:32;not null" json:"level"`
	DurationMonths int         `gorm:"column:duration_months" json:"duration_months"`
	// Minor currency units.
	TuitionFee int64     `gorm:"column:tuition_fee;not null;default:0" json:"tuition_fee"`
	Currency   string    `gorm:"column:currency;size:3" json:"currency"`
	IsActive   bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }

type Intake struct {
	ID                  uint       `gorm:"column:id;primaryKey" json:"id"`
	Name                string     `gorm:"column:name;size:120;not null" json:"name"`
	Month               int        `gorm:"column:month;not null" json:"month"`
	Year                int        `gorm:"column:year;not null" json:"year"`
	StartDate           *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	ApplicationDeadline *time.Time `gorm:"column:application_deadline" json:"application_deadline,omitempty"`
	IsActive            bool       `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt           time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Intake) TableName() string { return "intakes" }
