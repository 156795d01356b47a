package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/model"
	"github.com/nathidaum/spots-backend/pkg/token"
)

const testSecret = "test-secret-0123456789abcdef"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Output: io.Discard, Service: "test"})
}

func authedRequest(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/verify", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestRequireAuthMissingHeader(t *testing.T) {
	auth := RequireAuth(token.NewManager(testSecret, time.Hour), testLogger())
	handler := auth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Error("handler must not run without credentials")
	})

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(""), nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	auth := RequireAuth(token.NewManager(testSecret, time.Hour), testLogger())

	for _, header := range []string{"Basic abc", "Bearer", "Bearer   "} {
		handler := auth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			t.Errorf("handler ran for header %q", header)
		})

		rec := httptest.NewRecorder()
		handler(rec, authedRequest(header), nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("header %q: status = %d, want 400", header, rec.Code)
		}
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	tokens := token.NewManager(testSecret, -time.Minute)
	signed, _, err := tokens.Issue(&model.User{ID: "507f1f77bcf86cd799439011", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	auth := RequireAuth(tokens, testLogger())
	handler := auth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Error("handler must not run with an expired token")
	})

	rec := httptest.NewRecorder()
	handler(rec, authedRequest("Bearer "+signed), nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "expired") {
		t.Errorf("expired token not reported as such: %s", rec.Body.String())
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := token.NewManager(testSecret, time.Hour)
	signed, _, err := tokens.Issue(&model.User{
		ID:        "507f1f77bcf86cd799439011",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var identity Identity
	var found bool
	auth := RequireAuth(tokens, testLogger())
	handler := auth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		identity, found = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, authedRequest("Bearer "+signed), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !found || identity.ID != "507f1f77bcf86cd799439011" || identity.Email != "ada@example.com" {
		t.Errorf("identity = %+v, found = %v", identity, found)
	}
}
