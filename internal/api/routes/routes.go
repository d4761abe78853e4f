package routes

import (
	"net/http"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/api/handlers"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/api/middleware"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	JWT          middleware.JWTConfig
	Catalogs     *services.Catalogs
	Documents    *handlers.DocumentHandler
	Students     *handlers.StudentHandler
	Courses      *handlers.CourseHandler
	Applications *handlers.ApplicationHandler
	Activity     *handlers.ActivityHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	handlers.UseJSONFieldNames()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.Use(middleware.JWTAuth(d.JWT))

	registerCatalogs(api, d.Catalogs)

	api.GET("/universities/:id/courses", d.Courses.ByUniversity)

	api.POST("/students/:id/photo", d.Students.UploadPhoto)
	api.GET("/students/:id/documents", d.Students.Documents)
	api.GET("/students/:id/activity", d.Students.Activity)

	docs := api.Group("/documents")
	docs.GET("", d.Documents.List)
	docs.POST("", d.Documents.Upload)
	docs.GET("/:id", d.Documents.Get)
	docs.PUT("/:id", d.Documents.Update)
	docs.DELETE("/:id", d.Documents.Delete)
	docs.POST("/:id/verify", middleware.RequireReviewer(), d.Documents.Verify)
	docs.GET("/:id/download", d.Documents.Download)
	docs.GET("/:id/activity", d.Documents.Activity)
	docs.GET("/:id/files/:fileId/download", d.Documents.DownloadFile)
	docs.PUT("/:id/files/:fileId", d.Documents.UpdateFileDescription)
	docs.POST("/:id/files/:fileId/primary", d.Documents.SetPrimaryFile)

	apps := api.Group("/applications")
	apps.GET("", d.Applications.List)
	apps.POST("", d.Applications.Create)
	apps.GET("/:id", d.Applications.Get)
	apps.DELETE("/:id", d.Applications.Delete)
	apps.PATCH("/:id/status", d.Applications.UpdateStatus(handlers.StatusApplication))
	apps.PATCH("/:id/visa-status", d.Applications.UpdateStatus(handlers.StatusVisa))
	apps.PATCH("/:id/pre-departure-status", d.Applications.UpdateStatus(handlers.StatusPreDeparture))
	apps.POST("/:id/payments/schedule", d.Applications.SchedulePayments)
	apps.POST("/:id/payments/:paymentId/pay", d.Applications.MarkPaymentPaid)

	api.GET("/me/activity", d.Activity.Mine)
}

func registerCatalogs(g *gin.RouterGroup, c *services.Catalogs) {
	handlers.NewCatalogHandler[models.Country, handlers.CountryInput](c.Countries, nil, "name", "code").
		Register(g, "/countries")
	handlers.NewCatalogHandler[models.State, handlers.StateInput](c.States,
		map[string]string{"country_id": "country_id"}, "name").
		Register(g, "/states")
	handlers.NewCatalogHandler[models.Branch, handlers.BranchInput](c.Branches,
		map[string]string{"country_id": "country_id", "state_id": "state_id"}, "name", "code", "city").
		Register(g, "/branches")
	handlers.NewCatalogHandler[models.University, handlers.UniversityInput](c.Universities,
		map[string]string{"country_id": "country_id", "state_id": "state_id"}, "name", "city").
		Register(g, "/universities")
	handlers.NewCatalogHandler[models.Course, handlers.CourseInput](c.Courses,
		map[string]string{"university_id": "university_id", "level": "level"}, "name").
		Register(g, "/courses")
	handlers.NewCatalogHandler[models.Intake, handlers.IntakeInput](c.Intakes,
		map[string]string{"year": "year", "month": "month"}, "name").
		Register(g, "/intakes")
	handlers.NewCatalogHandler[models.Agent, handlers.AgentInput](c.Agents,
		map[string]string{"branch_id": "branch_id"}, "name", "email", "company_name").
		Register(g, "/agents")
	handlers.NewCatalogHandler[models.Employee, handlers.EmployeeInput](c.Employees,
		map[string]string{"branch_id": "branch_id"}, "first_name", "last_name", "email").
		Register(g, "/employees")
	handlers.NewCatalogHandler[models.DocumentType, handlers.DocumentTypeInput](c.DocumentTypes,
		map[string]string{"category": "category"}, "name").
		Register(g, "/document-types")
	handlers.NewCatalogHandler[models.Student, handlers.StudentInput](c.Students,
		map[string]string{"branch_id": "branch_id", "agent_id": "agent_id", "status": "status"},
		"first_name", "last_name", "email", "passport_number").
		Register(g, "/students")
}
