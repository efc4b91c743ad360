package models

import "time"

// FetchResult is the outcome of fetching a single URL through the proxy API.
// A failed fetch is a value, not an error: the caller records it and moves on,
// so one bad URL never aborts a batch.
type FetchResult struct {
	URL        string
	Success    bool
	Body       []byte
	StatusCode int
	Error      string
	Attempts   int
	Duration   time.Duration
	APIKey     string
}

// PersistStatus classifies what happened to a lead at the persistence gateway.
type PersistStatus string

const (
	PersistInserted  PersistStatus = "inserted"
	PersistDuplicate PersistStatus = "duplicate"
	PersistRejected  PersistStatus = "rejected"
)

// Rejection reasons surfaced in PersistOutcome.Reason.
const (
	RejectDailyLimit = "daily_limit"
	RejectStoreError = "store_error"
)

// PersistOutcome is the result of submitting one lead to the gateway.
// Duplicates and rejections are ordinary outcomes, not errors.
type PersistOutcome struct {
	Status PersistStatus
	Reason string
}

// Inserted reports whether the lead was newly stored.
func (o PersistOutcome) Inserted() bool { return o.Status == PersistInserted }
