package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finewatch/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the fines store. All aggregation queries in this package
// run against the single read-mostly `fines` table; writes happen only on
// the ingest path.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertFine persists one ingested fine record. Inserting a reference that
// already exists is not an error; the duplicate is skipped and inserted
// reports false. References are the regulator's identifiers and a notice is
// only ever published once.
func (s *SQLiteStore) InsertFine(ctx context.Context, rec core.FineRecord) (inserted bool, err error) {
	cats := rec.BreachCategories
	if cats == nil {
		cats = []string{}
	}
	catsJSON, err := json.Marshal(cats)
	if err != nil {
		return false, fmt.Errorf("marshal breach categories: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO fines (
			fine_reference, firm_individual, firm_category, regulator,
			final_notice_url, summary, breach_type, breach_categories,
			amount, date_issued, year_issued, month_issued
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(rec.Reference), rec.Firm, rec.FirmCategory, rec.Regulator,
		rec.NoticeURL, rec.Summary, nullIfEmpty(rec.BreachType), string(catsJSON),
		rec.Amount, rec.DateIssued, rec.YearIssued, rec.MonthIssued,
	)
	if err != nil {
		return false, fmt.Errorf("insert fine: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Fine already present, skipped", "reference", rec.Reference)
		return false, nil
	}
	return true, nil
}

// DistinctFirmNames enumerates every firm name currently in the store. The
// slug resolver rebuilds its firm index from this list.
func (s *SQLiteStore) DistinctFirmNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT firm_individual FROM fines ORDER BY firm_individual`)
	if err != nil {
		return nil, fmt.Errorf("query distinct firm names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan firm name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FirmRecords returns up to limit fines against the named firm, newest
// first, highest amount first within a day.
func (s *SQLiteStore) FirmRecords(ctx context.Context, name string, limit int) ([]core.FineRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		recordColumns+` FROM fines f WHERE f.firm_individual = ?
		 ORDER BY f.date_issued DESC, f.amount DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query firm records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// TopPenalties returns the largest individual fines within the filter scope,
// ordered by amount descending then date descending.
func (s *SQLiteStore) TopPenalties(ctx context.Context, f Filter, limit int) ([]core.FineRecord, error) {
	where, args := f.where()
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		recordColumns+` FROM fines f`+where+
			` ORDER BY f.amount DESC, f.date_issued DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query top penalties: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

const recordColumns = `SELECT f.fine_reference, f.firm_individual, f.firm_category,
	f.regulator, f.final_notice_url, f.summary, f.breach_type,
	f.breach_categories, f.amount, f.date_issued, f.year_issued, f.month_issued`

// scanRecords normalizes raw rows into fully-defaulted records: nullable
// columns become empty strings and a missing category list becomes the empty
// slice, so callers never see nulls.
func scanRecords(rows *sql.Rows) ([]core.FineRecord, error) {
	records := []core.FineRecord{}
	for rows.Next() {
		var (
			rec        core.FineRecord
			reference  sql.NullString
			breachType sql.NullString
			catsJSON   string
		)
		if err := rows.Scan(&reference, &rec.Firm, &rec.FirmCategory,
			&rec.Regulator, &rec.NoticeURL, &rec.Summary, &breachType,
			&catsJSON, &rec.Amount, &rec.DateIssued, &rec.YearIssued, &rec.MonthIssued); err != nil {
			return nil, fmt.Errorf("scan fine record: %w", err)
		}
		rec.Reference = reference.String
		rec.BreachType = breachType.String
		rec.BreachCategories = []string{}
		if catsJSON != "" {
			if err := json.Unmarshal([]byte(catsJSON), &rec.BreachCategories); err != nil {
				return nil, fmt.Errorf("decode breach categories: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
