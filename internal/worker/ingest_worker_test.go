package worker

import (
	"context"
	"errors"
	"testing"

	"finewatch/internal/amqp"
	"finewatch/internal/core"
)

type stubStore struct {
	inserted  []core.FineRecord
	insertErr error
	duplicate bool
}

func (s *stubStore) InsertFine(ctx context.Context, rec core.FineRecord) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	if s.duplicate {
		return false, nil
	}
	s.inserted = append(s.inserted, rec)
	return true, nil
}

type stubFeed struct {
	records []core.FineRecord
	err     error
}

func (s *stubFeed) FetchNotices(ctx context.Context) ([]core.FineRecord, error) {
	return s.records, s.err
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate() { c.calls++ }

func validMessage() *amqp.FineNoticeMessage {
	return &amqp.FineNoticeMessage{
		Reference:        "2023-FN-001",
		Firm:             "Acme Bank PLC",
		FirmCategory:     "Banking",
		BreachCategories: []string{"AML"},
		Amount:           50_000_000,
		DateIssued:       "2023-06-15",
	}
}

func TestHandleNoticeMessageStoresRecord(t *testing.T) {
	store := &stubStore{}
	inv := &countingInvalidator{}
	w := NewIngestWorker(store, nil, inv)

	if err := w.HandleNoticeMessage(context.Background(), validMessage()); err != nil {
		t.Fatalf("HandleNoticeMessage() error = %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("got %d inserts, want 1", len(store.inserted))
	}
	rec := store.inserted[0]
	if rec.YearIssued != 2023 || rec.MonthIssued != 6 {
		t.Errorf("got year/month %d/%d, want 2023/6", rec.YearIssued, rec.MonthIssued)
	}
	if inv.calls != 1 {
		t.Errorf("got %d invalidations, want 1", inv.calls)
	}
}

func TestHandleNoticeMessageDropsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*amqp.FineNoticeMessage)
	}{
		{"blank firm", func(m *amqp.FineNoticeMessage) { m.Firm = "   " }},
		{"negative amount", func(m *amqp.FineNoticeMessage) { m.Amount = -1 }},
		{"missing date", func(m *amqp.FineNoticeMessage) { m.DateIssued = "" }},
		{"garbage date", func(m *amqp.FineNoticeMessage) { m.DateIssued = "someday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			w := NewIngestWorker(store, nil)

			msg := validMessage()
			tt.mutate(msg)

			// Invalid notices are dropped without error so the broker
			// does not requeue them.
			if err := w.HandleNoticeMessage(context.Background(), msg); err != nil {
				t.Fatalf("HandleNoticeMessage() error = %v, want nil", err)
			}
			if len(store.inserted) != 0 {
				t.Errorf("invalid notice was inserted: %+v", store.inserted)
			}
		})
	}
}

func TestHandleNoticeMessageStoreFailurePropagates(t *testing.T) {
	store := &stubStore{insertErr: errors.New("db locked")}
	w := NewIngestWorker(store, nil)

	if err := w.HandleNoticeMessage(context.Background(), validMessage()); err == nil {
		t.Fatal("HandleNoticeMessage() should propagate store errors for requeue")
	}
}

func TestHandleNoticeMessageDuplicateSkipsInvalidation(t *testing.T) {
	store := &stubStore{duplicate: true}
	inv := &countingInvalidator{}
	w := NewIngestWorker(store, nil, inv)

	if err := w.HandleNoticeMessage(context.Background(), validMessage()); err != nil {
		t.Fatalf("HandleNoticeMessage() error = %v", err)
	}
	if inv.calls != 0 {
		t.Errorf("duplicate insert should not invalidate, got %d calls", inv.calls)
	}
}

func TestRefreshFromFeed(t *testing.T) {
	feed := &stubFeed{records: []core.FineRecord{
		{Firm: "Acme Bank PLC", Amount: 100, DateIssued: "2023-01-02", YearIssued: 2023, MonthIssued: 1},
		{Firm: "", Amount: 100, DateIssued: "2023-01-02", YearIssued: 2023, MonthIssued: 1}, // skipped
		{Firm: "Solo Adviser", Amount: 200, DateIssued: "2022-05-01", YearIssued: 2022, MonthIssued: 5},
	}}
	store := &stubStore{}
	inv := &countingInvalidator{}
	w := NewIngestWorker(store, feed, inv)

	if err := w.RefreshFromFeed(context.Background()); err != nil {
		t.Fatalf("RefreshFromFeed() error = %v", err)
	}
	if len(store.inserted) != 2 {
		t.Errorf("got %d inserts, want 2", len(store.inserted))
	}
	if inv.calls != 1 {
		t.Errorf("got %d invalidations, want 1", inv.calls)
	}
}

func TestRefreshFromFeedFetchError(t *testing.T) {
	w := NewIngestWorker(&stubStore{}, &stubFeed{err: errors.New("upstream down")})

	if err := w.RefreshFromFeed(context.Background()); err == nil {
		t.Fatal("RefreshFromFeed() should propagate fetch errors")
	}
}

func TestRefreshFromFeedWithoutFeedIsNoop(t *testing.T) {
	w := NewIngestWorker(&stubStore{}, nil)

	if err := w.RefreshFromFeed(context.Background()); err != nil {
		t.Fatalf("RefreshFromFeed() error = %v, want nil", err)
	}
}
