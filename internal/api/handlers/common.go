package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type APIError struct {
	Code    utils.Code        `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type PageMeta struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		body := APIError{Code: ae.Code, Message: ae.Message}
		if ae.Code == utils.CodeValidation {
			if fields, ok := utils.FieldErrors(ae.Err); ok {
				body.Fields = fields
			}
		}
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(status, body)
		return
	}

	_ = c.Error(err)
	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func writePage(c *gin.Context, data any, page, perPage int, total int64) {
	last := 1
	if perPage > 0 && total > 0 {
		last = int(math.Ceil(float64(total) / float64(perPage)))
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": PageMeta{Page: page, PerPage: perPage, Total: total, LastPage: last},
	})
}

func requireActorID(c *gin.Context) (uint, bool) {
	if v, ok := c.Get("actor_id"); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return id, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return 0, false
}

// bindJSON decodes the body and turns binding-tag failures into a 422 with
// one message per JSON field.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	const op = "Request.Bind"

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonField(fe)] = fieldMessage(fe)
		}
		writeError(c, utils.Invalid(op, &utils.ValidationError{Fields: fields}))
		return
	}
	writeError(c, utils.E(utils.CodeInvalidArgument, op, "malformed request body", err))
}

// jsonField strips the struct name from the validator namespace. Field
// names are JSON names once UseJSONFieldNames has run.
func jsonField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var registerOnce sync.Once

// UseJSONFieldNames makes gin's validator report fields by their json tag.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "Request.Param", name+" must be a positive integer", err))
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// pageParams reads page/per_page, clamping per_page to 100.
func pageParams(c *gin.Context) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "15"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage, (page - 1) * perPage
}
