package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

func run(h gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	h(c)
	return w
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		fields map[string]string
	}{
		{"validation", utils.Invalid("op", utils.NewValidationError("title", "title is required")),
			http.StatusUnprocessableEntity, map[string]string{"title": "title is required"}},
		{"duplicate file", utils.Invalid("op", &utils.DuplicateFileError{Index: 1}),
			http.StatusUnprocessableEntity, map[string]string{"files.1": "file 1: an identical file has already been uploaded"}},
		{"conflict", utils.E(utils.CodeConflict, "op", "cannot delete branch: dependent students exist", nil),
			http.StatusConflict, nil},
		{"not found", utils.E(utils.CodeNotFound, "op", "document not found", nil), http.StatusNotFound, nil},
		{"plain", errors.New("boom"), http.StatusInternalServerError, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := run(func(c *gin.Context) { writeError(c, tc.err) }, "/")
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var body APIError
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			for k, v := range tc.fields {
				if body.Fields[k] != v {
					t.Fatalf("field %s: expected %q, got %q", k, v, body.Fields[k])
				}
			}
			if tc.status == http.StatusInternalServerError && body.Message == "boom" {
				t.Fatalf("internal error text leaked to the client")
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	cases := map[string][3]int{
		"/":                     {1, 15, 0},
		"/?page=3&per_page=10":  {3, 10, 20},
		"/?page=0&per_page=500": {1, 100, 0},
		"/?page=x&per_page=-1":  {1, 15, 0},
	}
	for target, want := range cases {
		var got [3]int
		run(func(c *gin.Context) {
			got[0], got[1], got[2] = pageParams(c)
		}, target)
		if got != want {
			t.Fatalf("%s: expected %v, got %v", target, want, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	if d, err := parseDate(""); err != nil || d != nil {
		t.Fatalf("blank: %v %v", d, err)
	}
	d, err := parseDate("2030-02-01")
	if err != nil || d.Format("2006-01-02") != "2030-02-01" {
		t.Fatalf("date only: %v %v", d, err)
	}
	if _, err := parseDate("01/02/2030"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
