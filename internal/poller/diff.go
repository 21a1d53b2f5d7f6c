package poller

import (
	"database/sql"

	"github.com/jpalmerr/storewatch/internal/store"
	"github.com/jpalmerr/storewatch/internal/ubereats"
)

// Outcome classifies what happened to one store in one cycle.
type Outcome int

const (
	// OutcomeUnchanged means the fetched state equals the persisted record.
	OutcomeUnchanged Outcome = iota

	// OutcomeUpdated means title or image changed and was persisted; the
	// status did not change, so nobody was notified.
	OutcomeUpdated

	// OutcomeNotified means the status changed; the record was persisted
	// and a notification was sent.
	OutcomeNotified

	// OutcomeFetchFailed means the API reported non-success for the store.
	// Nothing was written; the store is retried next cycle.
	OutcomeFetchFailed

	// OutcomeFailed means processing failed for any other reason. Error holds
	// the cause.
	OutcomeFailed
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUpdated:
		return "updated"
	case OutcomeNotified:
		return "notified"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Candidate builds the record the remote detail implies for prev's store.
func Candidate(prev store.Record, detail ubereats.StoreDetail) store.Record {
	return store.Record{
		ID:     prev.ID,
		Title:  detail.Title,
		Image:  detail.Image,
		Status: sql.NullString{String: detail.State, Valid: true},
	}
}

// Evaluate compares the persisted record with a fetched detail.
//
// It returns the candidate record and one of [OutcomeUnchanged],
// [OutcomeUpdated] or [OutcomeNotified]. Equality is structural over id,
// title, image and status; a NULL status never equals an observed one.
func Evaluate(prev store.Record, detail ubereats.StoreDetail) (store.Record, Outcome) {
	next := Candidate(prev, detail)

	switch {
	case next == prev:
		return next, OutcomeUnchanged
	case next.Status != prev.Status:
		return next, OutcomeNotified
	default:
		return next, OutcomeUpdated
	}
}
