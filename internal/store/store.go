package store

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrAlreadyExists is returned by Insert when a record with the same ID
	// is already persisted.
	ErrAlreadyExists = errors.New("store already exists")

	// ErrNotFound is returned by Get and Update when no record has the ID.
	ErrNotFound = errors.New("store not found")
)

// Record is the persisted state of one tracked store.
//
// Record is comparable: two records are equal when all four fields are
// equal, which is exactly the "unchanged" test applied by the poll loop.
type Record struct {
	// ID is the identifier assigned by the remote service. Immutable.
	ID string

	// Title is the display name.
	Title string

	// Image is the thumbnail URL.
	Image string

	// Status is the last observed availability state. It is NULL until the
	// first successful poll.
	Status sql.NullString
}

// NoStatus labels a store that was never polled successfully.
const NoStatus = "None"

// StatusLabel returns the status, or [NoStatus] when it is NULL.
func StatusLabel(status sql.NullString) string {
	if !status.Valid {
		return NoStatus
	}
	return status.String
}

// Fields is a partial update. Nil fields are left untouched.
type Fields struct {
	Title  *string
	Image  *string
	Status *sql.NullString
}

// FieldsFrom returns a Fields value that overwrites title, image and status
// with the values of r.
func FieldsFrom(r Record) Fields {
	title, image, status := r.Title, r.Image, r.Status
	return Fields{Title: &title, Image: &image, Status: &status}
}

// empty reports whether the update would change nothing.
func (f Fields) empty() bool {
	return f.Title == nil && f.Image == nil && f.Status == nil
}

// Repository defines persistence for tracked stores.
//
// Implementations need not be safe for heavy concurrent writes; the poll
// loop and one-shot commands never write at the same time.
type Repository interface {
	// Insert persists a new record. Returns ErrAlreadyExists if the ID is taken.
	Insert(ctx context.Context, r Record) error

	// List returns all records in insertion order.
	List(ctx context.Context) ([]Record, error)

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Update applies a partial update. Returns ErrNotFound if the ID is absent.
	Update(ctx context.Context, id string, f Fields) error

	// Delete removes the record. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying database handle.
	Close() error
}
