// Package storewatch watches stores on a food delivery service and reports
// when their availability changes.
//
// Stores are registered by searching for a name near a delivery address.
// The last observed status of every store is persisted, and each poll
// compares the remote state against it: a changed status is persisted and
// notified (webhook, desktop), while a changed title or image is persisted
// silently.
//
// # Quick Start
//
//	w, err := storewatch.Open(ctx,
//	    storewatch.WithPlaceID("ChIJ..."),
//	    storewatch.WithDatabase("sqlite://storewatch.db"),
//	    storewatch.WithWebhook(os.Getenv("WEBHOOK_URL")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if _, err := w.AddStore(ctx, "Joe's Pizza"); err != nil {
//	    return err
//	}
//
//	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//	w.Start(ctx) // blocks until ctx is cancelled
//
// # Polling
//
// Stores are polled one at a time. After a full sweep the loop waits the
// polling interval (15 seconds by default) before the next. A store the
// service fails to report is skipped until the next sweep; one failing
// store never stops the others.
//
// # Architecture
//
//   - internal/store: persistence (SQLite, PostgreSQL, in-memory)
//   - internal/ubereats: API session and requests
//   - internal/notify: webhook and desktop notifiers
//   - internal/poller: diff evaluation and the sweep scheduler
//   - internal/server: optional read-only status API
//
// The internal packages are not part of the public API and may change
// without notice.
package storewatch
