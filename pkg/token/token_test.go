package token

import (
	"errors"
	"testing"
	"time"

	"github.com/nathidaum/spots-backend/pkg/model"
)

const testSecret = "unit-test-secret-0123456789"

func testUser() *model.User {
	return &model.User{
		ID:        "507f1f77bcf86cd799439011",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Miller",
	}
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	signed, expiresAt, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiresAt too early: %v", expiresAt)
	}

	claims, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.ID != "507f1f77bcf86cd799439011" {
		t.Errorf("claims.ID = %q", claims.ID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("claims.Email = %q", claims.Email)
	}
	if claims.FirstName != "Alice" || claims.LastName != "Miller" {
		t.Errorf("claims name = %q %q", claims.FirstName, claims.LastName)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager(testSecret, -time.Minute)

	signed, _, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Verify(signed); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	other := NewManager("another-secret-entirely-xyz", time.Hour)

	signed, _, err := other.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Verify(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	for _, in := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify(%q) expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestVerifyMissingID(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	signed, _, err := m.Issue(&model.User{Email: "no-id@example.com"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Verify(signed); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for claims without ID, got %v", err)
	}
}
