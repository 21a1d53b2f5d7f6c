package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop shows changes as local desktop notifications.
type Desktop struct {
	// send is swapped out in tests.
	send func(title, message, icon string) error
}

// NewDesktop creates a [Desktop] notifier.
func NewDesktop() *Desktop {
	return &Desktop{
		send: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Notify shows "<previous> → <current>" under the store title.
func (d *Desktop) Notify(_ context.Context, change Change) error {
	message := fmt.Sprintf("%s → %s", change.PreviousLabel(), change.Current)
	if err := d.send(change.Title, message, ""); err != nil {
		return fmt.Errorf("desktop notification failed: %w", err)
	}
	return nil
}
