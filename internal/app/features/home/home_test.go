package home

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratauth/internal/app/system/auth"
	"go.uber.org/zap"
)

func TestIndex_Anonymous(t *testing.T) {
	h := NewHandler("Strata", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/login") {
		t.Error("anonymous home page should link to /login")
	}
	if strings.Contains(body, "Signed in as") {
		t.Error("anonymous home page should not show a signed-in account")
	}
}

func TestIndex_SignedIn(t *testing.T) {
	h := NewHandler("Strata", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Email: "user@example.com"})
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "user@example.com") {
		t.Error("signed-in home page should show the account email")
	}
	if !strings.Contains(body, "/logout") {
		t.Error("signed-in home page should offer logout")
	}
}
