package services

import (
	"context"
	"strings"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/sirupsen/logrus"
)

// Catalogs groups the reference-data services.
type Catalogs struct {
	Countries     CatalogService[models.Country]
	States        CatalogService[models.State]
	Branches      CatalogService[models.Branch]
	Universities  CatalogService[models.University]
	Courses       CatalogService[models.Course]
	Intakes       CatalogService[models.Intake]
	Agents        CatalogService[models.Agent]
	Employees     CatalogService[models.Employee]
	DocumentTypes CatalogService[models.DocumentType]
	Students      CatalogService[models.Student]
}

func NewCatalogs(store postgres.Store, activity ActivityService, courses CourseService, students StudentService, log logrus.FieldLogger) *Catalogs {
	return &Catalogs{
		Countries: NewCatalogService(CatalogConfig[models.Country]{
			Entity: EntityCountry,
			ID:     func(r *models.Country) uint { return r.ID },
			Unique: "code",
			Prepare: func(_ context.Context, _ postgres.Store, r *models.Country) error {
				r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
				r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
				return nil
			},
		}, store, activity, log),

		States: NewCatalogService(CatalogConfig[models.State]{
			Entity: EntityState,
			ID:     func(r *models.State) uint { return r.ID },
			Prepare: func(ctx context.Context, s postgres.Store, r *models.State) error {
				return newRefs(ctx, s).
					require(exists[models.Country], "country_id", r.CountryID).
					err()
			},
		}, store, activity, log),

		Branches: NewCatalogService(CatalogConfig[models.Branch]{
			Entity: EntityBranch,
			ID:     func(r *models.Branch) uint { return r.ID },
			Unique: "code",
			Prepare: func(ctx context.Context, s postgres.Store, r *models.Branch) error {
				return newRefs(ctx, s).
					require(exists[models.Country], "country_id", r.CountryID).
					optional(exists[models.State], "state_id", r.StateID).
					stateInCountry(r.StateID, r.CountryID).
					err()
			},
		}, store, activity, log),

		Universities: NewCatalogService(CatalogConfig[models.University]{
			Entity: EntityUniversity,
			ID:     func(r *models.University) uint { return r.ID },
			Prepare: func(ctx context.Context, s postgres.Store, r *models.University) error {
				return newRefs(ctx, s).
					require(exists[models.Country], "country_id", r.CountryID).
					optional(exists[models.State], "state_id", r.StateID).
					stateInCountry(r.StateID, r.CountryID).
					err()
			},
			OnChange: func(ctx context.Context, kind ChangeKind, rows ...*models.University) {
				if kind != Created {
					for _, u := range rows {
						courses.Invalidate(ctx, u.ID)
					}
				}
			},
		}, store, activity, log),

		Courses: NewCatalogService(CatalogConfig[models.Course]{
			Entity: EntityCourse,
			ID:     func(r *models.Course) uint { return r.ID },
			Prepare: func(ctx context.Context, s postgres.Store, r *models.Course) error {
				r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
				if !r.Level.Valid() {
					return utils.NewValidationError("level", "unknown course level")
				}
				return newRefs(ctx, s).
					require(exists[models.University], "university_id", r.UniversityID).
					err()
			},
			OnChange: func(ctx context.Context, _ ChangeKind, rows ...*models.Course) {
				for _, c := range rows {
					courses.Invalidate(ctx, c.UniversityID)
				}
			},
		}, store, activity, log),

		Intakes: NewCatalogService(CatalogConfig[models.Intake]{
			Entity: EntityIntake,
			ID:     func(r *models.Intake) uint { return r.ID },
			Prepare: func(_ context.Context, _ postgres.Store, r *models.Intake) error {
				if r.StartDate != nil && r.ApplicationDeadline != nil && r.ApplicationDeadline.After(*r.StartDate) {
					return utils.NewValidationError("application_deadline", "must not be after the start date")
				}
				return nil
			},
		}, store, activity, log),

		Agents: NewCatalogService(CatalogConfig[models.Agent]{
			Entity: EntityAgent,
			ID:     func(r *models.Agent) uint { return r.ID },
			Unique: "email",
			Prepare: func(ctx context.Context, s postgres.Store, r *models.Agent) error {
				r.Email = strings.ToLower(strings.TrimSpace(r.Email))
				return newRefs(ctx, s).
					optional(exists[models.Branch], "branch_id", r.BranchID).
					err()
			},
		}, store, activity, log),

		Employees: NewCatalogService(CatalogConfig[models.Employee]{
			Entity: EntityEmployee,
			ID:     func(r *models.Employee) uint { return r.ID },
			Unique: "email",
			Prepare: func(ctx context.Context, s postgres.Store, r *models.Employee) error {
				r.Email = strings.ToLower(strings.TrimSpace(r.Email))
				return newRefs(ctx, s).
					require(exists[models.Branch], "branch_id", r.BranchID).
					err()
			},
		}, store, activity, log),

		DocumentTypes: NewCatalogService(CatalogConfig[models.DocumentType]{
			Entity:  EntityDocumentType,
			ID:      func(r *models.DocumentType) uint { return r.ID },
			Prepare: prepareDocumentType,
		}, store, activity, log),

		Students: NewCatalogService(CatalogConfig[models.Student]{
			Entity: EntityStudent,
			ID:     func(r *models.Student) uint { return r.ID },
			Unique: "email",
			Prepare: func(ctx context.Context, s postgres.Store, r *models.Student) error {
				r.Email = strings.ToLower(strings.TrimSpace(r.Email))
				if r.Status == "" {
					r.Status = models.StudentActive
				}
				return newRefs(ctx, s).
					require(exists[models.Country], "country_id", r.CountryID).
					optional(exists[models.State], "state_id", r.StateID).
					stateInCountry(r.StateID, r.CountryID).
					require(exists[models.Branch], "branch_id", r.BranchID).
					optional(exists[models.Agent], "agent_id", r.AgentID).
					err()
			},
			OnChange: func(ctx context.Context, kind ChangeKind, rows ...*models.Student) {
				if kind == Deleted {
					for _, st := range rows {
						students.RemovePhoto(ctx, st)
					}
				}
			},
		}, store, activity, log),
	}
}

// prepareDocumentType normalises the extension list and enforces the
// file-count rules: max_files >= 1, and exactly 1 for single-file types.
func prepareDocumentType(_ context.Context, _ postgres.Store, r *models.DocumentType) error {
	fields := map[string]string{}

	if r.Category == "" {
		r.Category = models.CategoryOther
	}
	if !r.Category.Valid() {
		fields["category"] = "unknown document category"
	}

	exts := make([]string, 0, len(r.AllowedFileTypes))
	seen := map[string]bool{}
	for _, e := range r.AllowedFileTypes {
		e = models.NormalizeExtension(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		exts = append(exts, e)
	}
	r.AllowedFileTypes = exts
	if len(exts) == 0 {
		fields["allowed_file_types"] = "at least one file type is required"
	}

	if r.MaxFileSizeKB <= 0 {
		fields["max_file_size"] = "must be at least 1 KB"
	}
	switch {
	case r.MaxFiles < 1:
		fields["max_files"] = "must be at least 1"
	case !r.AllowsMultipleFiles && r.MaxFiles != 1:
		fields["max_files"] = "must be 1 when multiple files are not allowed"
	}

	if len(fields) > 0 {
		return &utils.ValidationError{Fields: fields}
	}
	return nil
}

type existsFunc func(ctx context.Context, s postgres.Store, id uint) (bool, error)

func exists[T any](ctx context.Context, s postgres.Store, id uint) (bool, error) {
	return postgres.Crud[T](s).Exists(ctx, id)
}

// refs collects reference-check failures into a single ValidationError.
type refs struct {
	ctx    context.Context
	store  postgres.Store
	fields map[string]string
	fail   error
}

func newRefs(ctx context.Context, s postgres.Store) *refs {
	return &refs{ctx: ctx, store: s, fields: map[string]string{}}
}

func (r *refs) require(fn existsFunc, field string, id uint) *refs {
	if r.fail != nil {
		return r
	}
	if id == 0 {
		r.fields[field] = "is required"
		return r
	}
	ok, err := fn(r.ctx, r.store, id)
	if err != nil {
		r.fail = err
		return r
	}
	if !ok {
		r.fields[field] = "does not exist"
	}
	return r
}

func (r *refs) optional(fn existsFunc, field string, id *uint) *refs {
	if id == nil || *id == 0 {
		return r
	}
	return r.require(fn, field, *id)
}

func (r *refs) stateInCountry(stateID *uint, countryID uint) *refs {
	if r.fail != nil || stateID == nil || *stateID == 0 || r.fields["state_id"] != "" || r.fields["country_id"] != "" {
		return r
	}
	st, err := postgres.Crud[models.State](r.store).GetByID(r.ctx, *stateID)
	if err != nil {
		r.fail = err
		return r
	}
	if st.CountryID != countryID {
		r.fields["state_id"] = "does not belong to the selected country"
	}
	return r
}

func (r *refs) err() error {
	if r.fail != nil {
		return r.fail
	}
	if len(r.fields) > 0 {
		return &utils.ValidationError{Fields: r.fields}
	}
	return nil
}
