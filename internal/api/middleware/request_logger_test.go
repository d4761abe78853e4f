package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(l))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/documents/:id", func(c *gin.Context) {
		c.Set(ActorIDKey, uint(9))
		_ = c.Error(utils.E(utils.CodeInternal, "DocumentService.Get", "internal error", nil))
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/documents/3", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "req-1" {
		t.Fatalf("request id header = %q", got)
	}
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("entry = %+v", e)
	}
	if e.Data["route"] != "/documents/:id" || e.Data["op"] != "DocumentService.Get" ||
		e.Data["code"] != utils.CodeInternal || e.Data["actor_id"] != uint(9) || e.Data["request_id"] != "req-1" {
		t.Fatalf("fields = %v", e.Data)
	}

	hook.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	e = hook.LastEntry()
	if e == nil || e.Level != logrus.DebugLevel {
		t.Fatalf("ping entry = %+v", e)
	}
	if id, _ := e.Data["request_id"].(string); id == "" || w.Header().Get(RequestIDHeader) != id {
		t.Fatalf("generated request id = %q", id)
	}
	if _, ok := e.Data["actor_id"]; ok {
		t.Fatal("anonymous request logged an actor")
	}

	hook.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if e = hook.LastEntry(); e.Level != logrus.WarnLevel || e.Data["route"] != "/nowhere" {
		t.Fatalf("unmatched route entry = %+v", e)
	}
}
