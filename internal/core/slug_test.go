package core

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Banking", "banking"},
		{"spaces", "Consumer Credit", "consumer-credit"},
		{"ampersand", "Insurance & Protection", "insurance-and-protection"},
		{"punctuation", "Systems and Controls (SYSC)", "systems-and-controls-sysc"},
		{"surrounding whitespace", "  AML  ", "aml"},
		{"repeated separators", "Market -- Abuse", "market-abuse"},
		{"empty", "", ""},
		{"only punctuation", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		if Slugify("Retail Banking") != "retail-banking" {
			t.Fatal("Slugify is not stable across calls")
		}
	}
}

func TestFirmSlugDistinguishesCollidingNames(t *testing.T) {
	// Both names collapse to the same base slug.
	a := FirmSlug("Barclays Bank PLC")
	b := FirmSlug("Barclays Bank plc")

	if a == b {
		t.Errorf("FirmSlug produced identical slugs %q for distinct names", a)
	}
	if !strings.HasPrefix(a, "barclays-bank-plc-") || !strings.HasPrefix(b, "barclays-bank-plc-") {
		t.Errorf("firm slugs should share the base slug, got %q and %q", a, b)
	}
}

func TestFirmSlugStable(t *testing.T) {
	first := FirmSlug("Acme Bank")
	for i := 0; i < 5; i++ {
		if got := FirmSlug("Acme Bank"); got != first {
			t.Errorf("FirmSlug not stable: got %q, want %q", got, first)
		}
	}
}

func TestFirmSlugEmptyName(t *testing.T) {
	got := FirmSlug("")
	if got == "" {
		t.Error("FirmSlug of empty name should still produce a non-empty slug")
	}
	if strings.HasPrefix(got, "-") {
		t.Errorf("FirmSlug of empty name should not start with a hyphen, got %q", got)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name     string
		v        int
		min, max int
		want     int
	}{
		{"in range", 10, 1, 50, 10},
		{"below floor", 0, 1, 50, 1},
		{"negative", -5, 1, 50, 1},
		{"above ceiling", 999999, 1, 5000, 5000},
		{"at floor", 1, 1, 50, 1},
		{"at ceiling", 50, 1, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.v, tt.min, tt.max); got != tt.want {
				t.Errorf("ClampLimit(%d, %d, %d) = %d, want %d", tt.v, tt.min, tt.max, got, tt.want)
			}
		})
	}
}
