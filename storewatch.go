package storewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/storewatch/internal/notify"
	"github.com/jpalmerr/storewatch/internal/poller"
	"github.com/jpalmerr/storewatch/internal/server"
	"github.com/jpalmerr/storewatch/internal/store"
	"github.com/jpalmerr/storewatch/internal/ubereats"
)

const (
	defaultDatabaseURL     = "sqlite://storewatch.db"
	defaultPollingInterval = poller.DefaultInterval
)

var (
	// ErrAddressNotFound is returned when the configured delivery address
	// cannot be resolved by the delivery service.
	ErrAddressNotFound = errors.New("address not found")

	// ErrStoreNotFound is returned by [Watcher.AddStore] when the search
	// yields no store.
	ErrStoreNotFound = errors.New("store not found")

	// ErrAlreadyTracked is returned by [Watcher.AddStore] when the first
	// match is already tracked.
	ErrAlreadyTracked = errors.New("store already tracked")
)

// Watcher tracks stores on a food delivery service and reports availability
// changes.
//
// A Watcher is created with [Open] and released with [Watcher.Close]. The
// one-shot operations ([Watcher.AddStore], [Watcher.RemoveStore],
// [Watcher.Stores], [Watcher.CheckAddress]) may be used without starting the
// poll loop. [Watcher.Start] runs the loop until its context is cancelled:
//
//	w, err := storewatch.Open(ctx, storewatch.WithPlaceID(placeID))
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	w.Start(ctx) // blocks until ctx is cancelled
type Watcher struct {
	repo            store.Repository
	client          *ubereats.Client
	notifier        notify.Notifier
	pollingInterval time.Duration
	statusPort      int
	logger          *slog.Logger
	pollCallbacks   []func(PollResult)
	after           func(time.Duration) <-chan time.Time
}

// Open creates a [Watcher] with the given options, opening (and creating if
// needed) the database.
//
// [WithPlaceID] is required. Other options have defaults:
//   - Database: sqlite://storewatch.db
//   - Region: en-US
//   - Polling interval: 15 seconds
//   - Request timeout: 10 seconds
//   - Notifications: none
//
// Returns an error if an option is invalid or the database cannot be opened.
func Open(ctx context.Context, opts ...Option) (*Watcher, error) {
	cfg := &watcherConfig{
		databaseURL:     defaultDatabaseURL,
		pollingInterval: defaultPollingInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.placeID == "" {
		return nil, errors.New("place id is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := ubereats.NewClient(ubereats.Config{
		BaseURL: cfg.baseURL,
		PlaceID: cfg.placeID,
		Region:  cfg.region,
		Timeout: cfg.requestTimeout,
		Fields: ubereats.FieldPaths{
			Title:  cfg.fieldTitle,
			Image:  cfg.fieldImage,
			Status: cfg.fieldStatus,
		},
	})
	if err != nil {
		return nil, err
	}

	repo, err := store.Open(ctx, cfg.databaseURL)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Watcher{
		repo:            repo,
		client:          client,
		notifier:        buildNotifier(cfg),
		pollingInterval: cfg.pollingInterval,
		statusPort:      cfg.statusPort,
		logger:          logger,
		pollCallbacks:   cfg.pollCallbacks,
		after:           cfg.after,
	}, nil
}

func buildNotifier(cfg *watcherConfig) notify.Notifier {
	var notifiers notify.Multi
	if cfg.webhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhook(cfg.webhookURL, cfg.webhookUsername))
	}
	if cfg.desktopNotify {
		notifiers = append(notifiers, notify.NewDesktop())
	}
	if len(notifiers) == 0 {
		return notify.Discard
	}
	return notifiers
}

// Close releases the database and idle connections.
func (w *Watcher) Close() error {
	w.client.Close()
	return w.repo.Close()
}

// PollingInterval returns the pause between sweeps.
func (w *Watcher) PollingInterval() time.Duration {
	return w.pollingInterval
}

// Stores returns the tracked stores in the order they were added.
func (w *Watcher) Stores(ctx context.Context) ([]Store, error) {
	records, err := w.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	stores := make([]Store, len(records))
	for i, r := range records {
		stores[i] = storeFromRecord(r)
	}
	return stores, nil
}

// CheckAddress resolves the configured delivery address and returns its
// first line.
//
// Returns [ErrAddressNotFound] if the service does not recognise it.
func (w *Watcher) CheckAddress(ctx context.Context) (string, error) {
	addr, err := w.client.ResolveAddress(ctx)
	if err != nil {
		if errors.Is(err, ubereats.ErrAddressNotFound) {
			return "", fmt.Errorf("%w: %v", ErrAddressNotFound, err)
		}
		return "", fmt.Errorf("failed to resolve address: %w", err)
	}
	return addr.Line1, nil
}

// AddStore searches for name near the delivery address and tracks the first
// matching store. The new store has no status until it is polled.
//
// The address is resolved first; if that fails the search is not attempted
// and [ErrAddressNotFound] is returned. An empty or failed search returns
// [ErrStoreNotFound]. If the match is already tracked the returned Store
// describes it and the error is [ErrAlreadyTracked].
func (w *Watcher) AddStore(ctx context.Context, name string) (Store, error) {
	if _, err := w.CheckAddress(ctx); err != nil {
		return Store{}, err
	}

	candidates, err := w.client.SearchStores(ctx, name)
	if err != nil {
		if errors.Is(err, ubereats.ErrNotSuccess) {
			return Store{}, fmt.Errorf("%q: %w", name, ErrStoreNotFound)
		}
		return Store{}, fmt.Errorf("failed to search stores: %w", err)
	}
	if len(candidates) == 0 {
		return Store{}, fmt.Errorf("%q: %w", name, ErrStoreNotFound)
	}

	c := candidates[0]
	rec := store.Record{ID: c.ID, Title: c.Title, Image: c.Image}
	if err := w.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return storeFromRecord(rec), fmt.Errorf("%q: %w", c.Title, ErrAlreadyTracked)
		}
		return Store{}, err
	}

	w.logger.Debug("store added", "store_id", c.ID, "title", c.Title)
	return storeFromRecord(rec), nil
}

// RemoveStore stops tracking the store with the given ID. Removing an
// unknown ID is not an error.
func (w *Watcher) RemoveStore(ctx context.Context, id string) error {
	return w.repo.Delete(ctx, id)
}

// Start runs the poll loop until ctx is cancelled.
//
// Every tracked store is polled immediately, one at a time, then again after
// each polling interval. Status changes are persisted and notified; other
// changes are persisted silently. Stores added or removed while running are
// picked up on the next sweep. If a status port is configured the status
// API is served for the duration.
//
// Returns nil on graceful shutdown, or an error if the status API cannot
// bind its port.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("storewatch starting", "interval", w.pollingInterval.String())

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	hub := server.NewHub()

	scheduler := poller.NewScheduler(poller.Config{
		Repository: w.repo,
		Fetcher:    w.client,
		Notifier:   w.notifier,
		Interval:   w.pollingInterval,
		Logger:     w.logger,
		After:      w.after,
	})

	// the status API must bind before polling starts
	if w.statusPort > 0 {
		srv := server.NewServer(w.repo, hub, w.statusPort, w.logger)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start status api: %w", err)
		}
		w.logger.Info("status api available", "url", fmt.Sprintf("http://localhost:%d/api/stores", w.statusPort))
	}

	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			w.logResult(result)
			hub.Publish(eventFromResult(result))

			if len(w.pollCallbacks) > 0 {
				public := pollResultFromPoller(result)
				for _, cb := range w.pollCallbacks {
					invokeCallbackSafe(cb, public, w.logger)
				}
			}
		}
	}()

	<-ctx.Done()
	scheduler.Stop() // closes results channel
	wg.Wait()
	w.logger.Info("storewatch stopped")
	return nil
}

func (w *Watcher) logResult(r poller.Result) {
	attrs := []any{
		"store_id", r.StoreID,
		"title", r.Title,
		"outcome", r.Outcome.String(),
	}

	switch r.Outcome {
	case poller.OutcomeUnchanged:
		w.logger.Debug("store unchanged", attrs...)
	case poller.OutcomeUpdated:
		w.logger.Info("store details updated", attrs...)
	case poller.OutcomeNotified:
		attrs = append(attrs, "previous", store.StatusLabel(r.Previous), "current", store.StatusLabel(r.Current))
		w.logger.Info("store status changed", attrs...)
		if r.Error != nil {
			w.logger.Warn("notification failed", append(attrs, "error", r.Error.Error())...)
		}
	case poller.OutcomeFetchFailed:
		w.logger.Warn("store fetch failed", append(attrs, "error", errString(r.Error))...)
	default:
		w.logger.Error("store check failed", append(attrs, "error", errString(r.Error))...)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// eventFromResult converts a poll result to its streamed form.
func eventFromResult(r poller.Result) server.Event {
	ev := server.Event{
		Cycle:     r.Cycle,
		StoreID:   r.StoreID,
		Title:     r.Title,
		Outcome:   r.Outcome.String(),
		CheckedAt: r.CheckedAt,
	}
	if r.Previous.Valid {
		prev := r.Previous.String
		ev.Previous = &prev
	}
	if r.Current.Valid {
		cur := r.Current.String
		ev.Current = &cur
	}
	if r.Error != nil {
		msg := r.Error.Error()
		ev.Error = &msg
	}
	return ev
}

// invokeCallbackSafe calls a poll callback with panic recovery.
func invokeCallbackSafe(cb func(PollResult), result PollResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("poll callback panicked",
				"panic", r,
				"store_id", result.StoreID,
			)
		}
	}()
	cb(result)
}
