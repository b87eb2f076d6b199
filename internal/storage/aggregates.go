package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finewatch/internal/core"
)

// CountAndSum returns the basic aggregate block for the filter scope. An
// empty scope yields zeros, never nulls.
func (s *SQLiteStore) CountAndSum(ctx context.Context, f Filter) (core.CountAndSum, error) {
	where, args := f.where()
	var out core.CountAndSum
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(f.amount), 0),
		       COALESCE(AVG(f.amount), 0),
		       COALESCE(MAX(f.amount), 0)
		FROM fines f`+where, args...).
		Scan(&out.FineCount, &out.TotalAmount, &out.AvgAmount, &out.MaxAmount)
	if err != nil {
		return core.CountAndSum{}, fmt.Errorf("query count and sum: %w", err)
	}
	return out, nil
}

// TopFirmByAmount returns the firm behind the single largest fine in the
// filter scope, or the empty string when nothing matches.
func (s *SQLiteStore) TopFirmByAmount(ctx context.Context, f Filter) (string, error) {
	where, args := f.where()
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT f.firm_individual FROM fines f`+where+
			` ORDER BY f.amount DESC LIMIT 1`, args...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query top firm: %w", err)
	}
	return name, nil
}

// DominantCategory returns the breach category occurring on the most records
// in the filter scope. A record contributes at most once per distinct
// category it carries; records without categories contribute nothing here.
// Ties break on name ascending so the result is deterministic.
func (s *SQLiteStore) DominantCategory(ctx context.Context, f Filter) (string, error) {
	where, args := f.where()
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM (
			SELECT DISTINCT f.id AS id, je.value AS name
			FROM fines f, json_each(f.breach_categories) je`+where+`
		)
		GROUP BY name
		ORDER BY COUNT(*) DESC, name ASC
		LIMIT 1`, args...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query dominant category: %w", err)
	}
	return name, nil
}

// GroupByYear returns one row per issue year, newest year first.
func (s *SQLiteStore) GroupByYear(ctx context.Context) ([]core.YearSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.year_issued, COUNT(*), COALESCE(SUM(f.amount), 0)
		FROM fines f
		GROUP BY f.year_issued
		ORDER BY f.year_issued DESC`)
	if err != nil {
		return nil, fmt.Errorf("query fines by year: %w", err)
	}
	defer rows.Close()

	out := []core.YearSummary{}
	for rows.Next() {
		var y core.YearSummary
		if err := rows.Scan(&y.Year, &y.FineCount, &y.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan year summary: %w", err)
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// GroupByCategory explodes each record's category list into one row per
// distinct category and aggregates across records. The inner DISTINCT keeps
// a record from double-counting when the same category string recurs within
// its own list.
func (s *SQLiteStore) GroupByCategory(ctx context.Context) ([]core.CategorySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) AS fine_count, COALESCE(SUM(amount), 0) AS total_amount
		FROM (
			SELECT DISTINCT f.id AS id, je.value AS name, f.amount AS amount
			FROM fines f, json_each(f.breach_categories) je
		)
		GROUP BY name
		ORDER BY total_amount DESC, fine_count DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query fines by category: %w", err)
	}
	defer rows.Close()
	return scanCategorySummaries(rows)
}

// GroupBySector returns one row per non-blank firm category.
func (s *SQLiteStore) GroupBySector(ctx context.Context) ([]core.SectorSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.firm_category, COUNT(*) AS fine_count, COALESCE(SUM(f.amount), 0) AS total_amount
		FROM fines f
		WHERE f.firm_category IS NOT NULL AND TRIM(f.firm_category) != ''
		GROUP BY f.firm_category
		ORDER BY total_amount DESC, fine_count DESC, f.firm_category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query fines by sector: %w", err)
	}
	defer rows.Close()

	out := []core.SectorSummary{}
	for rows.Next() {
		var sec core.SectorSummary
		if err := rows.Scan(&sec.Name, &sec.FineCount, &sec.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan sector summary: %w", err)
		}
		sec.Slug = core.Slugify(sec.Name)
		out = append(out, sec)
	}
	return out, rows.Err()
}

// GroupByFirm returns the top firms by total amount across the whole table.
// The limit is clamped to [1, 1000].
func (s *SQLiteStore) GroupByFirm(ctx context.Context, limit int) ([]core.FirmSummary, error) {
	limit = core.ClampLimit(limit, 1, 1000)
	return s.queryFirmSummaries(ctx, Filter{}, limit)
}

// TopFirms returns the top firms by total amount within the filter scope.
func (s *SQLiteStore) TopFirms(ctx context.Context, f Filter, limit int) ([]core.FirmSummary, error) {
	return s.queryFirmSummaries(ctx, f, limit)
}

func (s *SQLiteStore) queryFirmSummaries(ctx context.Context, f Filter, limit int) ([]core.FirmSummary, error) {
	where, args := f.where()
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.firm_individual, COUNT(*) AS fine_count,
		       COALESCE(SUM(f.amount), 0) AS total_amount,
		       COALESCE(MAX(f.date_issued), '') AS latest_date
		FROM fines f`+where+`
		GROUP BY f.firm_individual
		ORDER BY total_amount DESC, fine_count DESC, f.firm_individual ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query firm summaries: %w", err)
	}
	defer rows.Close()

	out := []core.FirmSummary{}
	for rows.Next() {
		var fs core.FirmSummary
		if err := rows.Scan(&fs.Name, &fs.FineCount, &fs.TotalAmount, &fs.LatestDate); err != nil {
			return nil, fmt.Errorf("scan firm summary: %w", err)
		}
		fs.Slug = core.FirmSlug(fs.Name)
		out = append(out, fs)
	}
	return out, rows.Err()
}

// TopBreachesBySector aggregates breach categories within one sector.
// Records carrying no categories land in the Unclassified bucket instead of
// being dropped.
func (s *SQLiteStore) TopBreachesBySector(ctx context.Context, sector string, limit int) ([]core.CategorySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) AS fine_count, COALESCE(SUM(amount), 0) AS total_amount
		FROM (
			SELECT DISTINCT f.id AS id, je.value AS name, f.amount AS amount
			FROM fines f, json_each(
				CASE WHEN f.breach_categories IS NULL
				          OR f.breach_categories = ''
				          OR json_array_length(f.breach_categories) = 0
				     THEN json_array(?)
				     ELSE f.breach_categories
				END) je
			WHERE f.firm_category = ?
		)
		GROUP BY name
		ORDER BY total_amount DESC, fine_count DESC, name ASC
		LIMIT ?`, core.UnclassifiedCategory, sector, limit)
	if err != nil {
		return nil, fmt.Errorf("query breaches by sector: %w", err)
	}
	defer rows.Close()
	return scanCategorySummaries(rows)
}

// DateRange returns the earliest and latest issue dates within the filter
// scope, empty strings when nothing matches.
func (s *SQLiteStore) DateRange(ctx context.Context, f Filter) (earliest, latest string, err error) {
	where, args := f.where()
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MIN(f.date_issued), ''), COALESCE(MAX(f.date_issued), '')
		FROM fines f`+where, args...).Scan(&earliest, &latest)
	if err != nil {
		return "", "", fmt.Errorf("query date range: %w", err)
	}
	return earliest, latest, nil
}

// MonthlyTrend returns month buckets. With a positive year it returns all 12
// months of that year in ascending order, zero-filled where nothing was
// issued. Otherwise it returns the most recent limit buckets across all
// years, re-ordered ascending for presentation.
func (s *SQLiteStore) MonthlyTrend(ctx context.Context, year, limit int) ([]core.TrendPoint, error) {
	if year > 0 {
		rows, err := s.db.QueryContext(ctx, `
			SELECT f.month_issued, COUNT(*), COALESCE(SUM(f.amount), 0)
			FROM fines f
			WHERE f.year_issued = ?
			GROUP BY f.month_issued`, year)
		if err != nil {
			return nil, fmt.Errorf("query monthly trend: %w", err)
		}
		defer rows.Close()

		points := make([]core.TrendPoint, 12)
		for i := range points {
			points[i] = core.TrendPoint{Year: year, Month: i + 1}
		}
		for rows.Next() {
			var month int
			var count, total int64
			if err := rows.Scan(&month, &count, &total); err != nil {
				return nil, fmt.Errorf("scan trend point: %w", err)
			}
			if month >= 1 && month <= 12 {
				points[month-1].FineCount = count
				points[month-1].TotalAmount = total
			}
		}
		return points, rows.Err()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.year_issued, f.month_issued, COUNT(*), COALESCE(SUM(f.amount), 0)
		FROM fines f
		GROUP BY f.year_issued, f.month_issued
		ORDER BY f.year_issued DESC, f.month_issued DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query monthly trend: %w", err)
	}
	defer rows.Close()

	points := []core.TrendPoint{}
	for rows.Next() {
		var p core.TrendPoint
		if err := rows.Scan(&p.Year, &p.Month, &p.FineCount, &p.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for charting.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func scanCategorySummaries(rows *sql.Rows) ([]core.CategorySummary, error) {
	out := []core.CategorySummary{}
	for rows.Next() {
		var cat core.CategorySummary
		if err := rows.Scan(&cat.Name, &cat.FineCount, &cat.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		cat.Slug = core.Slugify(cat.Name)
		out = append(out, cat)
	}
	return out, rows.Err()
}
