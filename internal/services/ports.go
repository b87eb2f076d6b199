package services

import (
	"context"

	"finewatch/internal/core"
	"finewatch/internal/storage"
)

// NameSource enumerates the distinct entity names the slug resolver indexes.
type NameSource interface {
	DistinctFirmNames(ctx context.Context) ([]string, error)
	GroupByCategory(ctx context.Context) ([]core.CategorySummary, error)
	GroupBySector(ctx context.Context) ([]core.SectorSummary, error)
}

// Store is the aggregation surface the fines service composes. Implemented
// by storage.SQLiteStore; tests substitute a stub.
type Store interface {
	NameSource

	CountAndSum(ctx context.Context, f storage.Filter) (core.CountAndSum, error)
	TopFirmByAmount(ctx context.Context, f storage.Filter) (string, error)
	DominantCategory(ctx context.Context, f storage.Filter) (string, error)
	GroupByYear(ctx context.Context) ([]core.YearSummary, error)
	GroupByFirm(ctx context.Context, limit int) ([]core.FirmSummary, error)
	TopFirms(ctx context.Context, f storage.Filter, limit int) ([]core.FirmSummary, error)
	TopBreachesBySector(ctx context.Context, sector string, limit int) ([]core.CategorySummary, error)
	TopPenalties(ctx context.Context, f storage.Filter, limit int) ([]core.FineRecord, error)
	FirmRecords(ctx context.Context, name string, limit int) ([]core.FineRecord, error)
	DateRange(ctx context.Context, f storage.Filter) (earliest, latest string, err error)
	MonthlyTrend(ctx context.Context, year, limit int) ([]core.TrendPoint, error)
}
