package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"medreport-backend/internal/shared/auth"
	"medreport-backend/internal/shared/server/middleware"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())

	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = middleware.RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if seen == "" {
		t.Fatal("expected a generated request id in context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDKeepsCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "trace-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "trace-123" {
		t.Fatalf("caller id must be kept, got %q", got)
	}
}

func TestAuthStoresIdentityInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec, err := auth.NewCodec("test-secret", time.Hour, 24*time.Hour, "test")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	token, err := codec.IssueAccess("jean@example.com", "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	router := gin.New()
	router.Use(middleware.Auth(codec))

	var gotID, gotEmail string
	router.GET("/whoami", func(c *gin.Context) {
		gotID = middleware.UserIDFromContext(c)
		gotEmail = middleware.UserEmailFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != "user-1" || gotEmail != "jean@example.com" {
		t.Fatalf("identity not stored: id=%q email=%q", gotID, gotEmail)
	}
}

func TestIdentityHelpersEmptyWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var gotID, gotEmail string
	router.GET("/anon", func(c *gin.Context) {
		gotID = middleware.UserIDFromContext(c)
		gotEmail = middleware.UserEmailFromContext(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anon", nil))
	if gotID != "" || gotEmail != "" {
		t.Fatalf("expected empty identity, got id=%q email=%q", gotID, gotEmail)
	}
}
