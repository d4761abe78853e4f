package services

import (
	"context"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
)

const (
	EntityCountry      = "country"
	EntityState        = "state"
	EntityBranch       = "branch"
	EntityUniversity   = "university"
	EntityCourse       = "course"
	EntityIntake       = "intake"
	EntityAgent        = "agent"
	EntityEmployee     = "employee"
	EntityDocumentType = "document type"
	EntityStudent      = "student"
)

type dependent struct {
	name   string
	model  any
	column string

	// constrained marks relations backed by a database foreign key. Their
	// soft-deleted rows still block the delete.
	constrained bool
}

// dependents lists, per parent entity, the child tables that must be empty
// before the parent can be deleted. Order is the order reported to callers.
var dependents = map[string][]dependent{
	EntityCountry: {
		{"branches", &models.Branch{}, "country_id", false},
		{"states", &models.State{}, "country_id", false},
		{"universities", &models.University{}, "country_id", false},
		{"students", &models.Student{}, "country_id", false},
	},
	EntityState: {
		{"branches", &models.Branch{}, "state_id", false},
		{"universities", &models.University{}, "state_id", false},
		{"students", &models.Student{}, "state_id", false},
	},
	EntityBranch: {
		{"employees", &models.Employee{}, "branch_id", false},
		{"students", &models.Student{}, "branch_id", false},
		{"agents", &models.Agent{}, "branch_id", false},
	},
	EntityUniversity: {
		{"courses", &models.Course{}, "university_id", false},
		{"applications", &models.StudentApplication{}, "university_id", false},
	},
	EntityCourse: {
		{"applications", &models.StudentApplication{}, "course_id", false},
	},
	EntityIntake: {
		{"applications", &models.StudentApplication{}, "intake_id", false},
	},
	EntityAgent: {
		{"students", &models.Student{}, "agent_id", false},
	},
	EntityDocumentType: {
		{"documents", &models.Document{}, "document_type_id", true},
	},
	EntityStudent: {
		{"documents", &models.Document{}, "student_id", false},
		{"applications", &models.StudentApplication{}, "student_id", false},
	},
}

// GuardDelete reports every non-empty dependent relation of entity id as a
// single ReferentialIntegrityError. It must run on the same transaction as
// the delete it protects. Soft-deleted documents only count where a foreign
// key still points at the parent.
func GuardDelete(ctx context.Context, tx postgres.Store, entity string, id uint) error {
	var blocking []string
	for _, d := range dependents[entity] {
		n, err := tx.Dependents(ctx, d.model, d.column, id, d.constrained)
		if err != nil {
			return err
		}
		if n > 0 {
			blocking = append(blocking, d.name)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	return &utils.ReferentialIntegrityError{Entity: entity, Relations: blocking}
}
