// Package fca fetches enforcement fine notices from the published FCA feed
// and normalises them into storable records.
package fca

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finewatch/internal/core"
)

const feedHTTPTimeout = 30 * time.Second

// FeedClient pulls the fines feed over HTTP. A dedicated client with an
// explicit timeout keeps a slow upstream from pinning the poller.
type FeedClient struct {
	feedURL    string
	httpClient *http.Client
}

func NewFeedClient(feedURL string) *FeedClient {
	return &FeedClient{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: feedHTTPTimeout,
		},
	}
}

// feedEntry mirrors one object of the upstream JSON feed. Amounts arrive as
// whole pounds; dates as YYYY-MM-DD.
type feedEntry struct {
	Reference        string   `json:"fineReference"`
	Firm             string   `json:"firmIndividual"`
	FirmCategory     string   `json:"firmCategory"`
	Regulator        string   `json:"regulator"`
	NoticeURL        string   `json:"finalNoticeURL"`
	Summary          string   `json:"summary"`
	BreachType       string   `json:"breachType"`
	BreachCategories []string `json:"breachCategories"`
	Amount           int64    `json:"amount"`
	DateIssued       string   `json:"dateIssued"`
}

// FetchNotices downloads the feed and converts every usable entry. Entries
// with no firm name or a negative amount are skipped, not fatal: one bad
// row should not block an ingest run.
func (c *FeedClient) FetchNotices(ctx context.Context) ([]core.FineRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fines feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch fines feed: unexpected status %d", resp.StatusCode)
	}

	var entries []feedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode fines feed: %w", err)
	}

	records := make([]core.FineRecord, 0, len(entries))
	for _, e := range entries {
		rec, ok := e.toRecord()
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (e feedEntry) toRecord() (core.FineRecord, bool) {
	firm := strings.TrimSpace(e.Firm)
	if firm == "" || e.Amount < 0 {
		return core.FineRecord{}, false
	}

	rec := core.FineRecord{
		Reference:        strings.TrimSpace(e.Reference),
		Firm:             firm,
		FirmCategory:     strings.TrimSpace(e.FirmCategory),
		Regulator:        strings.TrimSpace(e.Regulator),
		NoticeURL:        strings.TrimSpace(e.NoticeURL),
		Summary:          e.Summary,
		BreachType:       strings.TrimSpace(e.BreachType),
		BreachCategories: e.BreachCategories,
		Amount:           e.Amount,
		DateIssued:       strings.TrimSpace(e.DateIssued),
	}
	if rec.BreachCategories == nil {
		rec.BreachCategories = []string{}
	}
	rec.YearIssued, rec.MonthIssued = splitIssueDate(rec.DateIssued)
	return rec, true
}

// splitIssueDate derives the year and month columns from a YYYY-MM-DD date.
// Unparseable dates yield zeroes rather than an error.
func splitIssueDate(date string) (year, month int) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return 0, 0
	}
	year, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		month = 0
	}
	return year, month
}
