package services

import (
	"context"
	"testing"
	"time"

	"finewatch/internal/core"
)

// stubNames counts index-rebuild queries so tests can assert that lookups
// within the TTL do not hit the store.
type stubNames struct {
	firms      []string
	categories []core.CategorySummary
	sectors    []core.SectorSummary

	firmQueries     int
	categoryQueries int
	sectorQueries   int
}

func (s *stubNames) DistinctFirmNames(ctx context.Context) ([]string, error) {
	s.firmQueries++
	return s.firms, nil
}

func (s *stubNames) GroupByCategory(ctx context.Context) ([]core.CategorySummary, error) {
	s.categoryQueries++
	return s.categories, nil
}

func (s *stubNames) GroupBySector(ctx context.Context) ([]core.SectorSummary, error) {
	s.sectorQueries++
	return s.sectors, nil
}

func TestResolveRoundTrip(t *testing.T) {
	src := &stubNames{
		firms:      []string{"Acme Bank", "Beta Ltd"},
		categories: []core.CategorySummary{{Name: "AML"}, {Name: "Market Abuse"}},
		sectors:    []core.SectorSummary{{Name: "Banking"}},
	}
	r := NewSlugResolver(src, time.Minute)
	ctx := context.Background()

	tests := []struct {
		name string
		kind Kind
		slug string
		want string
	}{
		{"firm", KindFirm, core.FirmSlug("Acme Bank"), "Acme Bank"},
		{"category", KindCategory, "aml", "AML"},
		{"category with spaces", KindCategory, "market-abuse", "Market Abuse"},
		{"sector", KindSector, "banking", "Banking"},
		{"unknown slug", KindCategory, "no-such-thing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.kind, tt.slug)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%s, %q) = %q, want %q", tt.kind, tt.slug, got, tt.want)
			}
		})
	}
}

func TestResolveDoesNotRequeryWithinTTL(t *testing.T) {
	src := &stubNames{categories: []core.CategorySummary{{Name: "AML"}}}
	r := NewSlugResolver(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := r.Resolve(ctx, KindCategory, "aml")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got != "AML" {
			t.Errorf("Resolve() = %q, want AML", got)
		}
	}

	if src.categoryQueries != 1 {
		t.Errorf("store queried %d times within TTL, want 1", src.categoryQueries)
	}
}

func TestResolveRebuildsAfterTTL(t *testing.T) {
	src := &stubNames{categories: []core.CategorySummary{{Name: "AML"}}}
	r := NewSlugResolver(src, time.Minute)
	ctx := context.Background()

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	if _, err := r.Resolve(ctx, KindCategory, "aml"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Name set changes; still within TTL, so the stale index answers.
	src.categories = append(src.categories, core.CategorySummary{Name: "Governance"})
	if got, _ := r.Resolve(ctx, KindCategory, "governance"); got != "" {
		t.Errorf("stale index should not know new name yet, got %q", got)
	}

	// Past the TTL the index rebuilds and the new name resolves.
	current = current.Add(16 * time.Minute)
	got, err := r.Resolve(ctx, KindCategory, "governance")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "Governance" {
		t.Errorf("Resolve() after TTL = %q, want Governance", got)
	}
	if src.categoryQueries != 2 {
		t.Errorf("store queried %d times, want 2 (initial build + one rebuild)", src.categoryQueries)
	}
}

func TestResolveFirmNameCollision(t *testing.T) {
	// Two distinct firms whose names collapse to the same base slug.
	src := &stubNames{firms: []string{"Barclays Bank PLC", "Barclays Bank plc"}}
	r := NewSlugResolver(src, time.Minute)
	ctx := context.Background()

	slugA := core.FirmSlug("Barclays Bank PLC")
	slugB := core.FirmSlug("Barclays Bank plc")
	if slugA == slugB {
		t.Fatal("test fixture needs distinct firm slugs")
	}

	gotA, err := r.Resolve(ctx, KindFirm, slugA)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	gotB, err := r.Resolve(ctx, KindFirm, slugB)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotA != "Barclays Bank PLC" || gotB != "Barclays Bank plc" {
		t.Errorf("collision resolution = (%q, %q), want the two distinct names", gotA, gotB)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	src := &stubNames{sectors: []core.SectorSummary{{Name: "Banking"}}}
	r := NewSlugResolver(src, time.Hour)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, KindSector, "banking"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	src.sectors = append(src.sectors, core.SectorSummary{Name: "Insurance"})
	r.Invalidate()

	got, err := r.Resolve(ctx, KindSector, "insurance")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "Insurance" {
		t.Errorf("Resolve() after Invalidate = %q, want Insurance", got)
	}
	if src.sectorQueries != 2 {
		t.Errorf("store queried %d times, want 2", src.sectorQueries)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	r := NewSlugResolver(&stubNames{}, time.Minute)
	if _, err := r.Resolve(context.Background(), Kind("regulator"), "fca"); err == nil {
		t.Error("Resolve() with unknown kind should error")
	}
}
