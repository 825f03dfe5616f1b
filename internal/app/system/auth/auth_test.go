package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratauth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSessionKey = "this-is-a-32-character-long-key!"

func TestNewSessionManager(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		sessionKey string
		secure     bool
		wantErr    bool
	}{
		{
			name:       "valid key dev mode",
			sessionKey: testSessionKey,
			secure:     false,
			wantErr:    false,
		},
		{
			name:       "valid key prod mode",
			sessionKey: testSessionKey,
			secure:     true,
			wantErr:    false,
		},
		{
			name:       "empty key",
			sessionKey: "",
			secure:     false,
			wantErr:    true,
		},
		{
			name:       "weak key dev mode",
			sessionKey: "short",
			secure:     false,
			wantErr:    false, // Warning but allowed in dev
		},
		{
			name:       "weak key prod mode",
			sessionKey: "short",
			secure:     true,
			wantErr:    true, // Error in prod
		},
		{
			name:       "default key prod mode",
			sessionKey: "dev-only-session-key-not-for-production",
			secure:     true,
			wantErr:    true, // Default keys not allowed in prod
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := NewSessionManager(tt.sessionKey, "test-session", "", time.Hour, tt.secure, logger)

			if tt.wantErr {
				if err == nil {
					t.Error("NewSessionManager() expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("NewSessionManager() error = %v", err)
				}
				if sm == nil {
					t.Error("NewSessionManager() returned nil")
				}
			}
		})
	}
}

func TestSessionManager_SessionName(t *testing.T) {
	logger := zap.NewNop()

	// Default name
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)
	if sm.SessionName() != "stratauth-session" {
		t.Errorf("SessionName() = %q, want %q", sm.SessionName(), "stratauth-session")
	}

	// Custom name
	sm2, _ := NewSessionManager(testSessionKey, "custom-session", "", time.Hour, false, logger)
	if sm2.SessionName() != "custom-session" {
		t.Errorf("SessionName() = %q, want %q", sm2.SessionName(), "custom-session")
	}
}

func TestSessionManager_CookieAttributes(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", 30*24*time.Hour, false, logger)

	opts := sm.Store().Options
	if !opts.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if opts.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", opts.SameSite)
	}
	if opts.Path != "/" {
		t.Errorf("Path = %q, want %q", opts.Path, "/")
	}
	if opts.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
		t.Errorf("MaxAge = %d, want 30 days in seconds", opts.MaxAge)
	}
	if opts.Secure {
		t.Error("Secure should be off outside production")
	}

	smProd, _ := NewSessionManager("xK8nP2mQ9rT5vW7yB3cF6hJ0lN4sU1wZ", "", "", time.Hour, true, logger)
	if !smProd.Store().Options.Secure {
		t.Error("Secure should be on in production")
	}
}

func TestCurrentUser(t *testing.T) {
	// Request without user
	req := httptest.NewRequest("GET", "/", nil)
	user, ok := CurrentUser(req)
	if ok {
		t.Error("CurrentUser() should return false for request without user")
	}
	if user != nil {
		t.Error("CurrentUser() should return nil for request without user")
	}

	// Request with user
	testUser := &SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Email: "test@example.com",
		Roles: []string{"admin"},
	}
	reqWithUser := WithTestUser(req, testUser)

	user, ok = CurrentUser(reqWithUser)
	if !ok {
		t.Error("CurrentUser() should return true for request with user")
	}
	if user == nil {
		t.Fatal("CurrentUser() should not return nil for request with user")
	}
	if user.ID != testUser.ID {
		t.Errorf("CurrentUser() ID = %q, want %q", user.ID, testUser.ID)
	}
	if user.Email != testUser.Email {
		t.Errorf("CurrentUser() Email = %q, want %q", user.Email, testUser.Email)
	}
}

func TestSessionUser_UserID(t *testing.T) {
	// Valid ID
	oid := primitive.NewObjectID()
	user := &SessionUser{ID: oid.Hex()}
	if user.UserID() != oid {
		t.Errorf("UserID() = %v, want %v", user.UserID(), oid)
	}

	// Invalid ID
	user2 := &SessionUser{ID: "invalid"}
	if !user2.UserID().IsZero() {
		t.Error("UserID() should return zero ObjectID for invalid ID")
	}

	// Empty ID
	user3 := &SessionUser{ID: ""}
	if !user3.UserID().IsZero() {
		t.Error("UserID() should return zero ObjectID for empty ID")
	}
}

func TestSessionUser_HasRole(t *testing.T) {
	user := &SessionUser{Roles: []string{"admin", "editor"}}

	if !user.HasRole("admin") {
		t.Error("HasRole(admin) = false, want true")
	}
	if !user.HasRole(" ADMIN ") {
		t.Error("HasRole should normalize before comparing")
	}
	if user.HasRole("viewer") {
		t.Error("HasRole(viewer) = true, want false")
	}

	empty := &SessionUser{}
	if empty.HasRole("admin") {
		t.Error("HasRole on empty role set should be false")
	}
}

func TestCreateSession_LoadSessionUser_Roundtrip(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	user := &models.User{
		ID:    primitive.NewObjectID(),
		Email: "roundtrip@example.com",
		Roles: []string{"admin", "editor"},
	}

	// Establish a session and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login/code", nil)
	if err := sm.CreateSession(rec, req, user); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("CreateSession() set no cookie")
	}

	// Replay the cookie through LoadSessionUser.
	var got *SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))

	req2 := httptest.NewRequest("GET", "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil {
		t.Fatal("LoadSessionUser did not inject the user")
	}
	if got.ID != user.ID.Hex() {
		t.Errorf("ID = %q, want %q", got.ID, user.ID.Hex())
	}
	if got.Email != user.Email {
		t.Errorf("Email = %q, want %q", got.Email, user.Email)
	}
	if len(got.Roles) != 2 || got.Roles[0] != "admin" || got.Roles[1] != "editor" {
		t.Errorf("Roles = %v, want [admin editor]", got.Roles)
	}
}

func TestDestroySession(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	user := &models.User{ID: primitive.NewObjectID(), Email: "bye@example.com"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login/code", nil)
	if err := sm.CreateSession(rec, req, user); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// Destroy using the established cookie.
	req2 := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	sm.DestroySession(rec2, req2)

	expired := false
	for _, c := range rec2.Result().Cookies() {
		if c.Name == sm.SessionName() && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("DestroySession should expire the session cookie")
	}
}

func TestRequireSignedIn(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	// Handler that should only be called if authenticated
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	protected := sm.RequireSignedIn(handler)

	// Test without authentication - HTML request
	t.Run("unauthenticated HTML", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if called {
			t.Error("Handler should not be called for unauthenticated request")
		}
		if rec.Code != http.StatusSeeOther {
			t.Errorf("Status = %d, want %d (redirect)", rec.Code, http.StatusSeeOther)
		}
		location := rec.Header().Get("Location")
		if location != "/login?redirect=%2Fprotected" {
			t.Errorf("Location = %q, want login with preserved target", location)
		}
	})

	// Test without authentication - API request
	t.Run("unauthenticated API", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if called {
			t.Error("Handler should not be called for unauthenticated request")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	// Test with authentication
	t.Run("authenticated", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("GET", "/protected", nil)
		req = WithTestUser(req, &SessionUser{
			ID:    primitive.NewObjectID().Hex(),
			Email: "test@example.com",
		})
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if !called {
			t.Error("Handler should be called for authenticated request")
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
		}
	})
}

func TestRequireRole(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	protected := sm.RequireRole("admin")(handler)

	tests := []struct {
		name     string
		roles    []string
		wantCode int
		wantCall bool
	}{
		{"correct role", []string{"admin"}, http.StatusOK, true},
		{"one of several roles", []string{"editor", "admin"}, http.StatusOK, true},
		{"wrong role", []string{"user"}, http.StatusForbidden, false},
		{"no roles", nil, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest("GET", "/admin", nil)
			req.Header.Set("Accept", "application/json")
			req = WithTestUser(req, &SessionUser{
				ID:    primitive.NewObjectID().Hex(),
				Roles: tt.roles,
			})
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if called != tt.wantCall {
				t.Errorf("handler called = %v, want %v", called, tt.wantCall)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}

	t.Run("unauthenticated API", func(t *testing.T) {
		called = false
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if called {
			t.Error("Handler should not be called for unauthenticated request")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestRedirectIntent_Roundtrip(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	// Store the intent from a login request.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login?redirect=%2Fdashboard%3Ftab%3D2", nil)
	sm.SetRedirectIntent(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SetRedirectIntent set no cookie")
	}

	// Consume it on the verify request.
	req2 := httptest.NewRequest("POST", "/login/code", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()

	if got := sm.ConsumeRedirectIntent(rec2, req2); got != "/dashboard?tab=2" {
		t.Errorf("ConsumeRedirectIntent() = %q, want %q", got, "/dashboard?tab=2")
	}

	// The consuming response must expire the intent cookie.
	expired := false
	for _, c := range rec2.Result().Cookies() {
		if c.Name == sm.redirectCookieName() && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("ConsumeRedirectIntent should expire the intent cookie")
	}
}

func TestConsumeRedirectIntent_Default(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	req := httptest.NewRequest("POST", "/login/code", nil)
	rec := httptest.NewRecorder()
	if got := sm.ConsumeRedirectIntent(rec, req); got != "/" {
		t.Errorf("ConsumeRedirectIntent() with no intent = %q, want %q", got, "/")
	}
}

func TestSetRedirectIntent_RejectsUnsafeTargets(t *testing.T) {
	logger := zap.NewNop()
	sm, _ := NewSessionManager(testSessionKey, "", "", time.Hour, false, logger)

	tests := []string{
		"/login",                                    // no redirect param at all
		"/login?redirect=https%3A%2F%2Fevil.com",    // absolute URL
		"/login?redirect=%2F%2Fevil.com%2Fpath",     // scheme-relative
		"/login?redirect=javascript%3Aalert%281%29", // not a path
		"/login?redirect=",                          // empty
	}
	for _, target := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", target, nil)
		sm.SetRedirectIntent(rec, req)
		if len(rec.Result().Cookies()) != 0 {
			t.Errorf("SetRedirectIntent(%q) should not set a cookie", target)
		}
	}
}

func TestSafeRedirectTarget(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"/", true},
		{"/dashboard", true},
		{"/a/b?c=d", true},
		{"", false},
		{"//evil.com", false},
		{"https://evil.com", false},
		{"dashboard", false},
	}
	for _, tt := range tests {
		if got := SafeRedirectTarget(tt.target); got != tt.want {
			t.Errorf("SafeRedirectTarget(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestJoinSplitRoles(t *testing.T) {
	if got := joinRoles([]string{"admin", "editor"}); got != "admin,editor" {
		t.Errorf("joinRoles() = %q", got)
	}
	if got := splitRoles(""); got != nil {
		t.Errorf("splitRoles(\"\") = %v, want nil", got)
	}
	got := splitRoles("admin, Editor ,")
	if len(got) != 2 || got[0] != "admin" || got[1] != "editor" {
		t.Errorf("splitRoles() = %v, want [admin editor]", got)
	}
}

func TestIsDefaultKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"dev-only-key", true},
		{"change-me-please", true},
		{"placeholder-key", true},
		{"default-session-key", true},
		{"example-key-here", true},
		{"insecure-dev-key", true},
		{"test-key-123", true},
		{"secret123", true},
		{"password123", true},
		{"xK8nP2mQ9rT5vW7yB3cF6hJ0lN4sU1wZ", false}, // Random looking
		{"secure-random-key-that-is-long-enough", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := isDefaultKey(tt.key)
			if got != tt.want {
				t.Errorf("isDefaultKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestClassifySessionError_Types(t *testing.T) {
	// Test with various error message patterns
	tests := []struct {
		name     string
		errMsg   string
		wantType sessionErrorType
	}{
		{"expired", "expired timestamp", sessionErrExpired},
		{"mac invalid", "mac validation failed", sessionErrTampered},
		{"hash invalid", "hash mismatch", sessionErrTampered},
		{"decrypt failed", "decrypt error", sessionErrCorrupted},
		{"base64 error", "base64 decode failed", sessionErrCorrupted},
		{"decode error", "decode failed", sessionErrCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create a mock securecookie decode error
			err := mockSecureCookieError{msg: tt.errMsg, isDecode: true}
			errType, _ := classifySessionError(err)
			if errType != tt.wantType {
				t.Errorf("classifySessionError() type = %v, want %v", errType, tt.wantType)
			}
		})
	}

	// nil error
	if errType, _ := classifySessionError(nil); errType != sessionErrUnknown {
		t.Errorf("classifySessionError(nil) type = %v, want %v", errType, sessionErrUnknown)
	}

	// Non-decode error should be backend
	errType, category := classifySessionError(mockSecureCookieError{msg: "backend error", isDecode: false})
	if errType != sessionErrBackend {
		t.Errorf("classifySessionError() type = %v, want %v", errType, sessionErrBackend)
	}
	if category != "backend" {
		t.Errorf("classifySessionError() category = %q, want %q", category, "backend")
	}
}

// mockSecureCookieError implements securecookie.Error for testing
type mockSecureCookieError struct {
	msg      string
	isDecode bool
}

func (e mockSecureCookieError) Error() string {
	return e.msg
}

func (e mockSecureCookieError) IsDecode() bool {
	return e.isDecode
}

func (e mockSecureCookieError) IsUsage() bool {
	return false
}

func (e mockSecureCookieError) IsInternal() bool {
	return false
}

func (e mockSecureCookieError) Cause() error {
	return nil
}

func TestWantsHTML(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   bool
	}{
		{"HTML accept", "text/html", true},
		{"HTML with charset", "text/html; charset=utf-8", true},
		{"JSON accept", "application/json", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}

			got := wantsHTML(req)
			if got != tt.want {
				t.Errorf("wantsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCurrentURI(t *testing.T) {
	req := httptest.NewRequest("GET", "/test/path?query=value", nil)
	uri := currentURI(req)
	if uri != "/test/path?query=value" {
		t.Errorf("currentURI() = %q, want %q", uri, "/test/path?query=value")
	}
}
