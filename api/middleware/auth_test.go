package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/flipearn/flipearn-backend/pkg/auth"
	"github.com/flipearn/flipearn-backend/pkg/config"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
)

func identityConfig() config.IdentityConfig {
	return config.IdentityConfig{
		JWTSecret:   "test-secret",
		JWTIssuer:   "https://id.example.com",
		AdminEmails: "boss@flipearn.app",
	}
}

func TestAuth_SeedsPrincipal(t *testing.T) {
	cfg := identityConfig()
	token, err := pkgAuth.MintIdentityToken(cfg, time.Now(), "user_123", "Seller@Example.com", "", time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotUserID, gotRole string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/listing/mine", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != "user_123" {
		t.Fatalf("unexpected user id: %q", gotUserID)
	}
	if gotRole != "user" {
		t.Fatalf("unexpected role: %q", gotRole)
	}
}

func TestAuth_AdminEmailGrantsAdminRole(t *testing.T) {
	cfg := identityConfig()
	token, err := pkgAuth.MintIdentityToken(cfg, time.Now(), "user_9", "Boss@FlipEarn.app", "", time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotRole string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if gotRole != "admin" {
		t.Fatalf("expected admin role, got %q", gotRole)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	handler := Auth(identityConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/listing/mine", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}
}

func TestAuth_RejectsGarbageToken(t *testing.T) {
	handler := Auth(identityConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/listing/mine", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole_Blocks(t *testing.T) {
	handler := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cfg := identityConfig()
	token, err := pkgAuth.MintIdentityToken(cfg, time.Now(), "user_123", "seller@example.com", "", time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(cfg, nil)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
