package amqp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"finewatch/internal/core"
)

// FineNoticeMessage carries one enforcement notice from the ingest feed to
// the worker. It is the wire shape only; year/month derivation and
// normalisation happen when it is converted to a core.FineRecord.
type FineNoticeMessage struct {
	Reference        string    `json:"fineReference"`
	Firm             string    `json:"firmIndividual"`
	FirmCategory     string    `json:"firmCategory"`
	Regulator        string    `json:"regulator"`
	NoticeURL        string    `json:"finalNoticeURL"`
	Summary          string    `json:"summary"`
	BreachType       string    `json:"breachType"`
	BreachCategories []string  `json:"breachCategories"`
	Amount           int64     `json:"amount"`
	DateIssued       string    `json:"dateIssued"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewFineNoticeMessage wraps a record for publishing.
func NewFineNoticeMessage(rec core.FineRecord) *FineNoticeMessage {
	return &FineNoticeMessage{
		Reference:        rec.Reference,
		Firm:             rec.Firm,
		FirmCategory:     rec.FirmCategory,
		Regulator:        rec.Regulator,
		NoticeURL:        rec.NoticeURL,
		Summary:          rec.Summary,
		BreachType:       rec.BreachType,
		BreachCategories: rec.BreachCategories,
		Amount:           rec.Amount,
		DateIssued:       rec.DateIssued,
		Timestamp:        time.Now(),
	}
}

// ToRecord converts the message to a storable record, deriving the year and
// month columns from the issue date.
func (m *FineNoticeMessage) ToRecord() core.FineRecord {
	rec := core.FineRecord{
		Reference:        m.Reference,
		Firm:             m.Firm,
		FirmCategory:     m.FirmCategory,
		Regulator:        m.Regulator,
		NoticeURL:        m.NoticeURL,
		Summary:          m.Summary,
		BreachType:       m.BreachType,
		BreachCategories: m.BreachCategories,
		Amount:           m.Amount,
		DateIssued:       m.DateIssued,
	}
	if rec.BreachCategories == nil {
		rec.BreachCategories = []string{}
	}
	if parts := strings.SplitN(m.DateIssued, "-", 3); len(parts) >= 2 {
		rec.YearIssued, _ = strconv.Atoi(parts[0])
		rec.MonthIssued, _ = strconv.Atoi(parts[1])
	}
	return rec
}

// ToJSON converts the message to JSON bytes
func (m *FineNoticeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func FineNoticeMessageFromJSON(data []byte) (*FineNoticeMessage, error) {
	var msg FineNoticeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
