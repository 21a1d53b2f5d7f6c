package storewatch

import (
	"database/sql"
	"time"

	"github.com/jpalmerr/storewatch/internal/poller"
	"github.com/jpalmerr/storewatch/internal/store"
)

// Store is a tracked store as last persisted.
type Store struct {
	// ID is the identifier assigned by the delivery service.
	ID string

	// Title is the display name.
	Title string

	// Image is the thumbnail URL. May be empty.
	Image string

	// Status is the last observed availability state, e.g. "OPEN".
	// Empty until the first successful poll; see Observed.
	Status string

	// Observed reports whether Status holds a polled value.
	Observed bool
}

// StatusLabel returns Status, or "None" when no status was observed yet.
func (s Store) StatusLabel() string {
	return store.StatusLabel(sql.NullString{String: s.Status, Valid: s.Observed})
}

func storeFromRecord(r store.Record) Store {
	return Store{
		ID:       r.ID,
		Title:    r.Title,
		Image:    r.Image,
		Status:   r.Status.String,
		Observed: r.Status.Valid,
	}
}

// Outcome classifies what one poll did to one store.
//
// Outcome is a string type so it logs and serializes readably.
type Outcome string

const (
	// OutcomeUnchanged means the remote state matched the persisted record.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeUpdated means title or image changed and was persisted without
	// a notification.
	OutcomeUpdated Outcome = "updated"

	// OutcomeNotified means the status changed, was persisted, and a
	// notification was sent.
	OutcomeNotified Outcome = "notified"

	// OutcomeFetchFailed means the service reported failure for the store.
	// Nothing was written; the store is retried next cycle.
	OutcomeFetchFailed Outcome = "fetch_failed"

	// OutcomeFailed means the poll failed for another reason; see
	// PollResult.Error.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// PollResult holds the outcome of polling a single store once.
type PollResult struct {
	// Cycle is the 1-based sweep number since Start.
	Cycle int

	// StoreID identifies the store.
	StoreID string

	// Title is the newest known title.
	Title string

	// Outcome classifies what happened.
	Outcome Outcome

	// Previous is the status before this poll, or "None".
	Previous string

	// Current is the status after this poll, or "None".
	Current string

	// CheckedAt is when the poll started.
	CheckedAt time.Time

	// Error is the cause for OutcomeFetchFailed and OutcomeFailed. With
	// OutcomeNotified it reports a failed notification delivery.
	Error error
}


// pollResultFromPoller converts an internal poller result to the public type.
func pollResultFromPoller(r poller.Result) PollResult {
	return PollResult{
		Cycle:     r.Cycle,
		StoreID:   r.StoreID,
		Title:     r.Title,
		Outcome:   Outcome(r.Outcome.String()),
		Previous:  store.StatusLabel(r.Previous),
		Current:   store.StatusLabel(r.Current),
		CheckedAt: r.CheckedAt,
		Error:     r.Error,
	}
}
