package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finewatch/internal/core"
	"finewatch/internal/storage"
)

// Limits applied to caller-supplied paging values. Out-of-range values are
// clamped, never rejected.
const (
	maxFirmRecords = 5000
	maxSubList     = 50
	maxTrendPoints = 120
)

// FinesService composes the aggregation queries and the slug resolver into
// the public read operations consumed by the HTTP layer. All operations are
// read-only; store failures propagate to the caller untouched, a slug that
// does not resolve yields a nil result rather than an error.
type FinesService struct {
	store    Store
	resolver *SlugResolver
}

func NewFinesService(store Store, slugTTL time.Duration) *FinesService {
	return &FinesService{
		store:    store,
		resolver: NewSlugResolver(store, slugTTL),
	}
}

// Resolver exposes the slug resolver so the ingest path can invalidate it.
func (s *FinesService) Resolver() *SlugResolver {
	return s.resolver
}

// Overview returns the headline statistics block, optionally scoped to one
// issue year (year <= 0 means all years). The three underlying queries are
// independent and run concurrently.
func (s *FinesService) Overview(ctx context.Context, year int) (core.Overview, error) {
	filter := storage.ByYear(year)

	var (
		stats    core.CountAndSum
		topFirm  string
		dominant string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.store.CountAndSum(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		topFirm, err = s.store.TopFirmByAmount(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		dominant, err = s.store.DominantCategory(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Overview{}, err
	}

	out := core.Overview{
		FineCount:        stats.FineCount,
		TotalAmount:      stats.TotalAmount,
		AvgAmount:        stats.AvgAmount,
		MaxAmount:        stats.MaxAmount,
		LargestFineFirm:  topFirm,
		DominantCategory: dominant,
	}
	if year > 0 {
		out.Year = year
	}
	return out, nil
}

// FinesByYear lists one summary row per issue year, newest first.
func (s *FinesService) FinesByYear(ctx context.Context) ([]core.YearSummary, error) {
	return s.store.GroupByYear(ctx)
}

// FinesByCategory lists one summary row per distinct breach category.
func (s *FinesService) FinesByCategory(ctx context.Context) ([]core.CategorySummary, error) {
	return s.store.GroupByCategory(ctx)
}

// FinesBySector lists one summary row per non-blank firm category.
func (s *FinesService) FinesBySector(ctx context.Context) ([]core.SectorSummary, error) {
	return s.store.GroupBySector(ctx)
}

// TopFirms lists the firms with the highest fine totals.
func (s *FinesService) TopFirms(ctx context.Context, limit int) ([]core.FirmSummary, error) {
	return s.store.GroupByFirm(ctx, limit)
}

// FirmDetails assembles the per-firm view for a firm slug. Returns nil when
// the slug resolves to no known firm.
func (s *FinesService) FirmDetails(ctx context.Context, slug string, recordLimit int) (*core.FirmDetails, error) {
	name, err := s.resolver.Resolve(ctx, KindFirm, slug)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	recordLimit = core.ClampLimit(recordLimit, 1, maxFirmRecords)
	filter := storage.ByFirm(name)

	var (
		stats            core.CountAndSum
		earliest, latest string
		records          []core.FineRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.store.CountAndSum(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		earliest, latest, err = s.store.DateRange(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		records, err = s.store.FirmRecords(gctx, name, recordLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &core.FirmDetails{
		Name:         name,
		Slug:         core.FirmSlug(name),
		FineCount:    stats.FineCount,
		TotalAmount:  stats.TotalAmount,
		MaxFine:      stats.MaxAmount,
		EarliestDate: earliest,
		LatestDate:   latest,
		Records:      records,
	}, nil
}

// BreachDetails assembles the per-category view for a breach-category slug.
// Returns nil when the slug resolves to no known category.
func (s *FinesService) BreachDetails(ctx context.Context, slug string, limitPenalties, limitFirms int) (*core.BreachDetails, error) {
	name, err := s.resolver.Resolve(ctx, KindCategory, slug)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	limitPenalties = core.ClampLimit(limitPenalties, 1, maxSubList)
	limitFirms = core.ClampLimit(limitFirms, 1, maxSubList)
	filter := storage.ByCategory(name)

	var (
		stats            core.CountAndSum
		earliest, latest string
		topFirms         []core.FirmSummary
		topPenalties     []core.FineRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.store.CountAndSum(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		earliest, latest, err = s.store.DateRange(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		topFirms, err = s.store.TopFirms(gctx, filter, limitFirms)
		return err
	})
	g.Go(func() (err error) {
		topPenalties, err = s.store.TopPenalties(gctx, filter, limitPenalties)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &core.BreachDetails{
		Category: core.CategorySummary{
			Name:        name,
			Slug:        core.Slugify(name),
			FineCount:   stats.FineCount,
			TotalAmount: stats.TotalAmount,
		},
		MaxFine:      stats.MaxAmount,
		EarliestDate: earliest,
		LatestDate:   latest,
		TopFirms:     topFirms,
		TopPenalties: topPenalties,
	}, nil
}

// SectorDetails assembles the per-sector view for a sector slug. Returns nil
// when the slug resolves to no known sector.
func (s *FinesService) SectorDetails(ctx context.Context, slug string, limitPenalties, limitBreaches int) (*core.SectorDetails, error) {
	name, err := s.resolver.Resolve(ctx, KindSector, slug)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	limitPenalties = core.ClampLimit(limitPenalties, 1, maxSubList)
	limitBreaches = core.ClampLimit(limitBreaches, 1, maxSubList)
	filter := storage.BySector(name)

	var (
		stats            core.CountAndSum
		earliest, latest string
		topBreaches      []core.CategorySummary
		topPenalties     []core.FineRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.store.CountAndSum(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		earliest, latest, err = s.store.DateRange(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		topBreaches, err = s.store.TopBreachesBySector(gctx, name, limitBreaches)
		return err
	})
	g.Go(func() (err error) {
		topPenalties, err = s.store.TopPenalties(gctx, filter, limitPenalties)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &core.SectorDetails{
		Sector: core.SectorSummary{
			Name:        name,
			Slug:        core.Slugify(name),
			FineCount:   stats.FineCount,
			TotalAmount: stats.TotalAmount,
		},
		MaxFine:      stats.MaxAmount,
		EarliestDate: earliest,
		LatestDate:   latest,
		TopBreaches:  topBreaches,
		TopPenalties: topPenalties,
	}, nil
}

// Trend returns time-bucketed totals. Only monthly buckets exist today; an
// empty period defaults to "month" and anything else is rejected so new
// period types fail loudly until implemented.
func (s *FinesService) Trend(ctx context.Context, period string, year, limit int) ([]core.TrendPoint, error) {
	if period != "" && period != "month" {
		return nil, fmt.Errorf("unsupported trend period %q", period)
	}
	limit = core.ClampLimit(limit, 1, maxTrendPoints)
	return s.store.MonthlyTrend(ctx, year, limit)
}
