package models

import "time"

type Country struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:120;not null" json:"name"`
	Code      string    `gorm:"column:code;size:3;not null;uniqueIndex" json:"code"`
	PhoneCode string    `gorm:"column:phone_code;size:8" json:"phone_code"`
	Currency  string    `gorm:"column:currency;size:3" json:"currency"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Country) TableName() string { return "countries" }

type State struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	CountryID uint      `gorm:"column:country_id;not null;index" json:"country_id"`
	Name      string    `gorm:"column:name;size:120;not null" json:"name"`
	Code      string    `gorm:"column:code;size:16" json:"code"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (State) TableName() string { return "states" }

type Branch struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Code      string    `gorm:"column:code;size:32;not null;uniqueIndex" json:"code"`
	CountryID uint      `gorm:"column:country_id;not null;index" json:"country_id"`
	StateID   *uint     `gorm:"column:state_id;index" json:"state_id,omitempty"`
	City      string    `gorm:"column:city;size:120" json:"city"`
	Address   string    `gorm:"column:address;type:text" json:"address"`
	Phone     string    `gorm:"column:phone;size:32" json:"phone"`
	Email     string    `gorm:"column:email;size:255" json:"email"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Branch) TableName() string { return "branches" }

type Employee struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	BranchID  uint      `gorm:"column:branch_id;not null;index" json:"branch_id"`
	FirstName string    `gorm:"column:first_name;size:120;not null" json:"first_name"`
	LastName  string    `gorm:"column:last_name;size:120;not null" json:"last_name"`
	Email     string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"column:phone;size:32" json:"phone"`
	Position  string    `gorm:"column:position;size:120" json:"position"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

type Agent struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;size:255;not null" json:"name"`
	Email          string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Phone          string    `gorm:"column:phone;size:32" json:"phone"`
	CompanyName    string    `gorm:"column:company_name;size:255" json:"company_name"`
	BranchID       *uint     `gorm:"column:branch_id;index" json:"branch_id,omitempty"`
	CommissionRate float64   `gorm:"column:commission_rate;not null;default:0" json:"commission_rate"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Agent) TableName() string { return "agents" }
