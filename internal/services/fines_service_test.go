package services

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"finewatch/internal/core"
	"finewatch/internal/storage"
)

func newTestService(t *testing.T) (*FinesService, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "fines.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewFinesService(store, time.Minute), store
}

func insertFixture(t *testing.T, store *storage.SQLiteStore, rec core.FineRecord) {
	t.Helper()
	if rec.YearIssued == 0 && len(rec.DateIssued) >= 7 {
		rec.YearIssued, _ = strconv.Atoi(rec.DateIssued[:4])
		rec.MonthIssued, _ = strconv.Atoi(rec.DateIssued[5:7])
	}
	if _, err := store.InsertFine(context.Background(), rec); err != nil {
		t.Fatalf("InsertFine(%q) error = %v", rec.Firm, err)
	}
}

func TestBreachDetailsScenario(t *testing.T) {
	svc, store := newTestService(t)
	insertFixture(t, store, core.FineRecord{
		Firm:             "Acme Bank",
		Amount:           50_000_000,
		BreachCategories: []string{"AML"},
		DateIssued:       "2024-01-15",
	})

	details, err := svc.BreachDetails(context.Background(), "aml", 10, 10)
	if err != nil {
		t.Fatalf("BreachDetails() error = %v", err)
	}
	if details == nil {
		t.Fatal("BreachDetails() = nil, want details for indexed category")
	}

	if details.Category.Name != "AML" || details.Category.Slug != "aml" {
		t.Errorf("category = %+v, want name AML slug aml", details.Category)
	}
	if details.Category.FineCount != 1 {
		t.Errorf("fineCount = %d, want 1", details.Category.FineCount)
	}
	if details.Category.TotalAmount != 50_000_000 {
		t.Errorf("totalAmount = %d, want 50000000", details.Category.TotalAmount)
	}
	if details.MaxFine != 50_000_000 {
		t.Errorf("maxFine = %d, want 50000000", details.MaxFine)
	}
	if len(details.TopFirms) != 1 {
		t.Fatalf("topFirms has %d entries, want 1", len(details.TopFirms))
	}
	tf := details.TopFirms[0]
	if tf.Name != "Acme Bank" || tf.FineCount != 1 || tf.TotalAmount != 50_000_000 {
		t.Errorf("topFirms[0] = %+v, want Acme Bank / 1 / 50000000", tf)
	}
	if len(details.TopPenalties) != 1 || details.TopPenalties[0].Firm != "Acme Bank" {
		t.Errorf("topPenalties = %+v, want the single Acme Bank record", details.TopPenalties)
	}
}

func TestSectorDetailsUnknownSlug(t *testing.T) {
	svc, store := newTestService(t)
	insertFixture(t, store, core.FineRecord{
		Firm: "Acme Bank", FirmCategory: "Banking", Amount: 100, DateIssued: "2024-01-15",
	})

	// "Insurance" was never an observed firm_category, so its slug is never
	// indexed and the lookup is a not-found, by design.
	details, err := svc.SectorDetails(context.Background(), core.Slugify("Insurance"), 10, 10)
	if err != nil {
		t.Fatalf("SectorDetails() error = %v", err)
	}
	if details != nil {
		t.Errorf("SectorDetails() for never-observed sector = %+v, want nil", details)
	}
}

func TestSectorDetailsAssembly(t *testing.T) {
	svc, store := newTestService(t)
	insertFixture(t, store, core.FineRecord{
		Firm: "Acme Bank", FirmCategory: "Banking", Amount: 300,
		BreachCategories: []string{"AML"}, DateIssued: "2023-05-01",
	})
	insertFixture(t, store, core.FineRecord{
		Firm: "Beta Ltd", FirmCategory: "Banking", Amount: 100,
		DateIssued: "2024-02-01",
	})

	details, err := svc.SectorDetails(context.Background(), "banking", 10, 10)
	if err != nil {
		t.Fatalf("SectorDetails() error = %v", err)
	}
	if details == nil {
		t.Fatal("SectorDetails() = nil, want details")
	}
	if details.Sector.FineCount != 2 || details.Sector.TotalAmount != 400 {
		t.Errorf("sector summary = %+v, want count 2 total 400", details.Sector)
	}
	if details.EarliestDate != "2023-05-01" || details.LatestDate != "2024-02-01" {
		t.Errorf("date range = (%s, %s), want (2023-05-01, 2024-02-01)",
			details.EarliestDate, details.LatestDate)
	}
	if len(details.TopBreaches) != 2 {
		t.Fatalf("topBreaches has %d entries, want 2 (AML + Unclassified)", len(details.TopBreaches))
	}
	if details.TopBreaches[0].Name != "AML" {
		t.Errorf("top breach = %q, want AML (higher total)", details.TopBreaches[0].Name)
	}
	if details.TopBreaches[1].Name != core.UnclassifiedCategory {
		t.Errorf("second breach = %q, want %s", details.TopBreaches[1].Name, core.UnclassifiedCategory)
	}
	if len(details.TopPenalties) != 2 || details.TopPenalties[0].Amount != 300 {
		t.Errorf("topPenalties = %+v, want 300 first", details.TopPenalties)
	}
}

func TestFirmDetailsAssemblyAndClamp(t *testing.T) {
	svc, store := newTestService(t)
	for i := 1; i <= 3; i++ {
		insertFixture(t, store, core.FineRecord{
			Firm:       "Acme Bank",
			Amount:     int64(i * 100),
			DateIssued: "2024-0" + strconv.Itoa(i) + "-10",
		})
	}

	slug := core.FirmSlug("Acme Bank")

	details, err := svc.FirmDetails(context.Background(), slug, 999999)
	if err != nil {
		t.Fatalf("FirmDetails() error = %v", err)
	}
	if details == nil {
		t.Fatal("FirmDetails() = nil, want details")
	}
	if details.Name != "Acme Bank" || details.Slug != slug {
		t.Errorf("identity = (%q, %q), want (Acme Bank, %q)", details.Name, details.Slug, slug)
	}
	if details.FineCount != 3 || details.TotalAmount != 600 || details.MaxFine != 300 {
		t.Errorf("aggregates = count %d total %d max %d, want 3/600/300",
			details.FineCount, details.TotalAmount, details.MaxFine)
	}
	if details.EarliestDate != "2024-01-10" || details.LatestDate != "2024-03-10" {
		t.Errorf("dates = (%s, %s), want (2024-01-10, 2024-03-10)",
			details.EarliestDate, details.LatestDate)
	}
	if len(details.Records) != 3 || details.Records[0].Amount != 300 {
		t.Errorf("records = %+v, want 3 records newest first", details.Records)
	}

	// A zero limit clamps to the floor of one record.
	details, err = svc.FirmDetails(context.Background(), slug, 0)
	if err != nil {
		t.Fatalf("FirmDetails() error = %v", err)
	}
	if len(details.Records) != 1 {
		t.Errorf("FirmDetails with limit 0 returned %d records, want 1", len(details.Records))
	}
	// The summary aggregates still cover every record regardless of paging.
	if details.FineCount != 3 {
		t.Errorf("fineCount = %d, want 3 even when records are paged", details.FineCount)
	}
}

func TestFirmDetailsUnknownSlug(t *testing.T) {
	svc, _ := newTestService(t)

	details, err := svc.FirmDetails(context.Background(), "no-such-firm-00000000", 10)
	if err != nil {
		t.Fatalf("FirmDetails() error = %v", err)
	}
	if details != nil {
		t.Errorf("FirmDetails() = %+v, want nil for unknown slug", details)
	}
}

func TestOverview(t *testing.T) {
	svc, store := newTestService(t)
	insertFixture(t, store, core.FineRecord{
		Firm: "Acme Bank", Amount: 400, BreachCategories: []string{"AML"}, DateIssued: "2023-03-01",
	})
	insertFixture(t, store, core.FineRecord{
		Firm: "Beta Ltd", Amount: 200, BreachCategories: []string{"AML", "Governance"}, DateIssued: "2023-07-01",
	})
	insertFixture(t, store, core.FineRecord{
		Firm: "Gamma plc", Amount: 900, DateIssued: "2022-01-01",
	})

	got, err := svc.Overview(context.Background(), 2023)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if got.FineCount != 2 || got.TotalAmount != 600 {
		t.Errorf("overview = %+v, want count 2 total 600", got)
	}
	if got.LargestFineFirm != "Acme Bank" {
		t.Errorf("largestFineFirm = %q, want Acme Bank", got.LargestFineFirm)
	}
	if got.DominantCategory != "AML" {
		t.Errorf("dominantCategory = %q, want AML", got.DominantCategory)
	}
	if got.Year != 2023 {
		t.Errorf("year = %d, want 2023", got.Year)
	}

	all, err := svc.Overview(context.Background(), 0)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if all.FineCount != 3 || all.LargestFineFirm != "Gamma plc" {
		t.Errorf("all-years overview = %+v, want count 3 and Gamma plc", all)
	}
	if all.Year != 0 {
		t.Errorf("all-years overview year = %d, want 0", all.Year)
	}
}

func TestOverviewEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Overview(context.Background(), 0)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	want := core.Overview{}
	if got != want {
		t.Errorf("Overview() on empty store = %+v, want zeros", got)
	}
}

func TestTrendRejectsUnknownPeriod(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Trend(context.Background(), "week", 2023, 12); err == nil {
		t.Error("Trend() with unsupported period should error")
	}
}

func TestTrendMonthlyPassThrough(t *testing.T) {
	svc, store := newTestService(t)
	insertFixture(t, store, core.FineRecord{Firm: "A", Amount: 100, DateIssued: "2023-04-01"})

	points, err := svc.Trend(context.Background(), "month", 2023, 12)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("Trend(month, 2023) returned %d points, want 12", len(points))
	}
	if points[3].TotalAmount != 100 {
		t.Errorf("april total = %d, want 100", points[3].TotalAmount)
	}

	// Empty period defaults to monthly.
	if _, err := svc.Trend(context.Background(), "", 2023, 12); err != nil {
		t.Errorf("Trend() with empty period error = %v, want nil", err)
	}
}
