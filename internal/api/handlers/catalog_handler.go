package handlers

import (
	"net/http"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

// Input is a request body that knows how to copy itself onto a row.
type Input[T any] interface {
	Apply(row *T)
}

// CatalogHandler serves list/show/create/update/delete for one entity.
// D is the request body type; *D must implement Input[T].
type CatalogHandler[T any, D any, PD interface {
	*D
	Input[T]
}] struct {
	svc services.CatalogService[T]
	// Filters maps query parameters to columns for equality filtering.
	Filters map[string]string
	Search  []string
}

func NewCatalogHandler[T any, D any, PD interface {
	*D
	Input[T]
}](svc services.CatalogService[T], filters map[string]string, search ...string) *CatalogHandler[T, D, PD] {
	return &CatalogHandler[T, D, PD]{svc: svc, Filters: filters, Search: search}
}

func (h *CatalogHandler[T, D, PD]) List(c *gin.Context) {
	page, perPage, offset := pageParams(c)
	q := postgres.ListQuery{
		Offset:        offset,
		Limit:         perPage,
		Filters:       map[string]any{},
		Search:        c.Query("search"),
		SearchColumns: h.Search,
	}
	for param, col := range h.Filters {
		if v := c.Query(param); v != "" {
			q.Filters[col] = v
		}
	}

	rows, total, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, rows, page, perPage, total)
}

func (h *CatalogHandler[T, D, PD]) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	row, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (h *CatalogHandler[T, D, PD]) Create(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	var in D
	if !bindJSON(c, &in) {
		return
	}
	row := new(T)
	PD(&in).Apply(row)

	out, err := h.svc.Create(c.Request.Context(), actorID, row)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

func (h *CatalogHandler[T, D, PD]) Update(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in D
	if !bindJSON(c, &in) {
		return
	}

	out, err := h.svc.Update(c.Request.Context(), actorID, id, PD(&in).Apply)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *CatalogHandler[T, D, PD]) Delete(c *gin.Context) {
	actorID, ok := requireActorID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actorID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Register mounts the five CRUD routes under g at path.
func (h *CatalogHandler[T, D, PD]) Register(g gin.IRoutes, path string) {
	g.GET(path, h.List)
	g.POST(path, h.Create)
	g.GET(path+"/:id", h.Get)
	g.PUT(path+"/:id", h.Update)
	g.DELETE(path+"/:id", h.Delete)
}
