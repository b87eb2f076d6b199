// Package worker ingests enforcement fine notices into the store, both from
// queued messages and from periodic full-feed refreshes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finewatch/internal/amqp"
	"finewatch/internal/core"
)

// FineStore is the slice of the storage layer the worker writes through.
type FineStore interface {
	InsertFine(ctx context.Context, rec core.FineRecord) (bool, error)
}

// FeedSource pulls the full current feed; the backup path when queued
// messages are lost.
type FeedSource interface {
	FetchNotices(ctx context.Context) ([]core.FineRecord, error)
}

// Invalidator is notified after new rows land so derived state (slug
// indexes, response caches) gets rebuilt.
type Invalidator interface {
	Invalidate()
}

// InvalidatorFunc adapts a plain function to the Invalidator interface.
type InvalidatorFunc func()

func (f InvalidatorFunc) Invalidate() { f() }

type IngestWorker struct {
	store        FineStore
	feed         FeedSource
	invalidators []Invalidator
}

func NewIngestWorker(store FineStore, feed FeedSource, invalidators ...Invalidator) *IngestWorker {
	return &IngestWorker{
		store:        store,
		feed:         feed,
		invalidators: invalidators,
	}
}

// HandleNoticeMessage processes a single fine notice message from AMQP.
func (w *IngestWorker) HandleNoticeMessage(ctx context.Context, msg *amqp.FineNoticeMessage) error {
	slog.InfoContext(ctx, "Processing fine notice message",
		"reference", msg.Reference,
		"firm", msg.Firm)

	rec := msg.ToRecord()
	if err := validateRecord(rec); err != nil {
		// Invalid notices are dropped, not requeued: they will never
		// become valid.
		slog.WarnContext(ctx, "Dropping invalid fine notice",
			"reference", msg.Reference,
			"firm", msg.Firm,
			"error", err)
		return nil
	}

	inserted, err := w.store.InsertFine(ctx, rec)
	if err != nil {
		return fmt.Errorf("insert fine: %w", err)
	}

	if inserted {
		w.notifyInvalidators()
		slog.InfoContext(ctx, "Stored fine notice",
			"reference", rec.Reference,
			"firm", rec.Firm,
			"amount", rec.Amount)
	}
	return nil
}

// RefreshFromFeed pulls the full feed and inserts anything not yet stored.
// This is a backup mechanism in case AMQP messages are lost.
func (w *IngestWorker) RefreshFromFeed(ctx context.Context) error {
	if w.feed == nil {
		return nil
	}

	records, err := w.feed.FetchNotices(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	insertedCount := 0
	errorCount := 0
	for _, rec := range records {
		if err := validateRecord(rec); err != nil {
			slog.WarnContext(ctx, "Skipping invalid feed entry",
				"reference", rec.Reference,
				"firm", rec.Firm,
				"error", err)
			continue
		}

		inserted, err := w.store.InsertFine(ctx, rec)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to insert feed entry",
				"reference", rec.Reference,
				"firm", rec.Firm,
				"error", err)
			errorCount++
			continue
		}
		if inserted {
			insertedCount++
		}
	}

	if insertedCount > 0 {
		w.notifyInvalidators()
	}

	slog.InfoContext(ctx, "Feed refresh completed",
		"total", len(records),
		"inserted", insertedCount,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("feed refresh: %d of %d entries failed", errorCount, len(records))
	}
	return nil
}

func (w *IngestWorker) notifyInvalidators() {
	for _, inv := range w.invalidators {
		inv.Invalidate()
	}
}

func validateRecord(rec core.FineRecord) error {
	if strings.TrimSpace(rec.Firm) == "" {
		return fmt.Errorf("firm name is required")
	}
	if rec.Amount < 0 {
		return fmt.Errorf("amount must be non-negative, got %d", rec.Amount)
	}
	if strings.TrimSpace(rec.DateIssued) == "" {
		return fmt.Errorf("issue date is required")
	}
	if rec.YearIssued <= 0 {
		return fmt.Errorf("year could not be derived from date %q", rec.DateIssued)
	}
	if rec.MonthIssued < 1 || rec.MonthIssued > 12 {
		return fmt.Errorf("month out of range: %d", rec.MonthIssued)
	}
	return nil
}
