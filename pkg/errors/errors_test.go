package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		want int
	}{
		{"not found", NotFound("Spot"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("dates taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("mongo"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if got := tt.err.StatusCode(); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNotFoundWithIDDetails(t *testing.T) {
	err := NotFoundWithID("Booking", "abc123")
	if err.Details["resource"] != "Booking" || err.Details["id"] != "abc123" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("query failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("already booked")
	if got := AsAppError(appErr); got != appErr {
		t.Error("AsAppError should return the original AppError")
	}

	plain := errors.New("plain")
	got := AsAppError(plain)
	if got.Code != CodeInternal {
		t.Errorf("plain error should map to internal, got %s", got.Code)
	}
	if got.StatusCode() != http.StatusInternalServerError {
		t.Errorf("plain error status = %d, want 500", got.StatusCode())
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(Forbidden("nope")) {
		t.Error("expected true for AppError")
	}
	if IsAppError(errors.New("plain")) {
		t.Error("expected false for plain error")
	}
}
