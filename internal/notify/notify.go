// Package notify delivers store status changes to people.
//
// A [Notifier] receives a [Change] each time the poll loop observes a new
// availability status. Implementations are fire-and-forget from the loop's
// point of view: errors are reported to the caller for logging, never retried.
package notify

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jpalmerr/storewatch/internal/store"
)

// Change describes one observed status transition.
type Change struct {
	// StoreID identifies the store.
	StoreID string

	// Title is the store's display name.
	Title string

	// Image is the store's thumbnail URL.
	Image string

	// Previous is the status persisted before this poll, NULL if none.
	Previous sql.NullString

	// Current is the status observed by this poll.
	Current string
}

// PreviousLabel returns the previous status, or "None" if there was none.
func (c Change) PreviousLabel() string {
	return store.StatusLabel(c.Previous)
}

// Notifier delivers a [Change].
type Notifier interface {
	Notify(ctx context.Context, change Change) error
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, change Change) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// Multi fans a change out to every notifier in order.
//
// Every notifier is attempted even if an earlier one fails; the returned
// error joins all failures.
type Multi []Notifier

// Notify delivers change to all notifiers.
func (m Multi) Notify(ctx context.Context, change Change) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Notifier that drops every change.
var Discard Notifier = NotifierFunc(func(context.Context, Change) error { return nil })
