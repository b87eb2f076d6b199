// Package core holds the domain model of the fines service: enforcement
// records, aggregate shapes, and slug derivation.
package core

// UnclassifiedCategory is the bucket used for records that carry no breach
// categories. Sector-level breach aggregation must never drop such records.
const UnclassifiedCategory = "Unclassified"

// FineRecord is one regulatory enforcement action against a firm or
// individual. Records are immutable once ingested; the service only reads
// them back for aggregation. Dates use the YYYY-MM-DD form the regulator
// publishes; YearIssued and MonthIssued are denormalized from DateIssued for
// fast filtering and grouping.
type FineRecord struct {
	Reference        string   `json:"fineReference,omitempty"`
	Firm             string   `json:"firmIndividual"`
	FirmCategory     string   `json:"firmCategory,omitempty"`
	Regulator        string   `json:"regulator,omitempty"`
	NoticeURL        string   `json:"finalNoticeUrl,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	BreachType       string   `json:"breachType,omitempty"`
	BreachCategories []string `json:"breachCategories"`
	Amount           int64    `json:"amount"`
	DateIssued       string   `json:"dateIssued"`
	YearIssued       int      `json:"yearIssued"`
	MonthIssued      int      `json:"monthIssued"`
}

// CountAndSum holds the basic aggregate statistics for a filter scope.
// AvgAmount and MaxAmount are zero, never null, when no records match.
type CountAndSum struct {
	FineCount   int64   `json:"fineCount"`
	TotalAmount int64   `json:"totalAmount"`
	AvgAmount   float64 `json:"avgAmount"`
	MaxAmount   int64   `json:"maxAmount"`
}

// CategorySummary is one row per distinct breach category. Each underlying
// record counts at most once per category even if the category string recurs
// within that record's list.
type CategorySummary struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	FineCount   int64  `json:"fineCount"`
	TotalAmount int64  `json:"totalAmount"`
}

// SectorSummary is one row per distinct non-empty firm category.
type SectorSummary struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	FineCount   int64  `json:"fineCount"`
	TotalAmount int64  `json:"totalAmount"`
}

// YearSummary is one row per issue year.
type YearSummary struct {
	Year        int   `json:"year"`
	FineCount   int64 `json:"fineCount"`
	TotalAmount int64 `json:"totalAmount"`
}

// FirmSummary is a per-firm rollup used in listings and nested top-N lists.
type FirmSummary struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	FineCount   int64  `json:"fineCount"`
	TotalAmount int64  `json:"totalAmount"`
	LatestDate  string `json:"latestDate,omitempty"`
}

// FirmDetails is the full per-firm view: summary aggregates plus the
// underlying records, newest first.
type FirmDetails struct {
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	FineCount    int64        `json:"fineCount"`
	TotalAmount  int64        `json:"totalAmount"`
	MaxFine      int64        `json:"maxFine"`
	EarliestDate string       `json:"earliestDate,omitempty"`
	LatestDate   string       `json:"latestDate,omitempty"`
	Records      []FineRecord `json:"records"`
}

// BreachDetails is the per-category view: summary plus top firms and top
// penalties within the category scope.
type BreachDetails struct {
	Category     CategorySummary `json:"category"`
	MaxFine      int64           `json:"maxFine"`
	EarliestDate string          `json:"earliestDate,omitempty"`
	LatestDate   string          `json:"latestDate,omitempty"`
	TopFirms     []FirmSummary   `json:"topFirms"`
	TopPenalties []FineRecord    `json:"topPenalties"`
}

// SectorDetails is the per-sector view: summary plus top breach categories
// (with records lacking categories bucketed under UnclassifiedCategory) and
// top penalties within the sector scope.
type SectorDetails struct {
	Sector       SectorSummary     `json:"sector"`
	MaxFine      int64             `json:"maxFine"`
	EarliestDate string            `json:"earliestDate,omitempty"`
	LatestDate   string            `json:"latestDate,omitempty"`
	TopBreaches  []CategorySummary `json:"topBreaches"`
	TopPenalties []FineRecord      `json:"topPenalties"`
}

// TrendPoint is one time bucket in a trend series. Only monthly buckets are
// produced today.
type TrendPoint struct {
	Year        int   `json:"year"`
	Month       int   `json:"month"`
	FineCount   int64 `json:"fineCount"`
	TotalAmount int64 `json:"totalAmount"`
}

// Overview is the headline statistics block for the dashboard, optionally
// scoped to a single issue year.
type Overview struct {
	Year             int     `json:"year,omitempty"`
	FineCount        int64   `json:"fineCount"`
	TotalAmount      int64   `json:"totalAmount"`
	AvgAmount        float64 `json:"avgAmount"`
	MaxAmount        int64   `json:"maxAmount"`
	LargestFineFirm  string  `json:"largestFineFirm,omitempty"`
	DominantCategory string  `json:"dominantCategory,omitempty"`
}

// ClampLimit forces a caller-supplied limit into [min, max]. Out-of-range
// limits are never an error in this service, they are silently clamped.
func ClampLimit(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
