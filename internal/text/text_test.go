// internal/text/text_test.go
package text

import (
	"strings"
	"testing"

	"github.com/dalemusser/dotmail/internal/variant"
	"golang.org/x/text/language"
)

func TestThousands(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{8, "8"},
		{1024, "1,024"},
		{1 << 20, "1,048,576"},
	}
	for _, tt := range tests {
		if got := Thousands(language.English, tt.n); got != tt.want {
			t.Errorf("Thousands(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTotal(t *testing.T) {
	if got := Total(language.English, variant.Count("abcdefghijk")); got != "1,024" {
		t.Errorf("Total(11 chars) = %q, want 1,024", got)
	}
	long := variant.Count(strings.Repeat("a", 65))
	if got := Total(language.English, long); got != "18,446,744,073,709,551,616" {
		t.Errorf("Total(65 chars) = %q", got)
	}
}

func TestGroupDigits(t *testing.T) {
	tests := map[string]string{
		"1":       "1",
		"123":     "123",
		"1234":    "1,234",
		"123456":  "123,456",
		"1234567": "1,234,567",
	}
	for in, want := range tests {
		if got := groupDigits(in); got != want {
			t.Errorf("groupDigits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"name@gmail.com", "name@gmail.com"},
		{"  Name@Gmail.COM ", "name@gmail.com"},
		{"émile@mail.fr", "émile@mail.fr"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
