package sanitizer

import (
	"slices"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"hello   world", "hello world"},
		{"hello\tworld\n", "hello world"},
		{"", ""},
		{"   ", ""},
		{"Meeting Room", "Meeting Room"},
	}

	for _, tt := range tests {
		if got := TrimAndNormalize(tt.in); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestSanitizeSlice(t *testing.T) {
	in := []string{" Wifi ", "Wifi", "", "  ", "Coffee"}
	got := SanitizeSlice(in, TrimAndNormalize)
	want := []string{"Wifi", "Coffee"}
	if !slices.Equal(got, want) {
		t.Errorf("SanitizeSlice = %v, want %v", got, want)
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/path/", "https://example.com/path"},
		{"example.com", "https://example.com"},
		{"https://example.com?utm_source=x&q=1", "https://example.com?q=1"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	if got := SanitizePhone("+4915123456789"); got != "+4915123456789" {
		t.Errorf("valid E.164 number changed: %q", got)
	}
	if got := SanitizePhone(""); got != "" {
		t.Errorf("empty phone should stay empty, got %q", got)
	}
	// Numbers not matching the permitted pattern pass through untouched and
	// are rejected later by validation.
	if got := SanitizePhone("not-a-phone"); got != "not-a-phone" {
		t.Errorf("invalid phone should pass through, got %q", got)
	}
}

func TestPipeline(t *testing.T) {
	p := Pipeline{TrimAndNormalize, NormalizeEmail}
	if got := p.Apply("  Bob@Example.com  "); got != "bob@example.com" {
		t.Errorf("Pipeline.Apply = %q", got)
	}
}
