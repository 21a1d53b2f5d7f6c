package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/storewatch"
)

func main() {
	// start mock api (see mock_server.go)
	go StartMockAPI(":9999")
	time.Sleep(100 * time.Millisecond)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := storewatch.Open(ctx,
		storewatch.WithPlaceID("ChIJdd4hrwug2EcRmSrV3Vo6llI"),
		storewatch.WithDatabase("memory"),
		storewatch.WithBaseURL("http://localhost:9999"),
		storewatch.WithPollingInterval(5*time.Second),
		storewatch.WithStatusPort(8080),
		storewatch.WithPollCallback(func(r storewatch.PollResult) {
			if r.Outcome == storewatch.OutcomeNotified {
				fmt.Printf("  %s: %s -> %s\n", r.Title, r.Previous, r.Current)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to open watcher", "error", err)
		os.Exit(1)
	}
	defer func() { _ = w.Close() }()

	address, err := w.CheckAddress(ctx)
	if err != nil {
		slog.Error("failed to resolve address", "error", err)
		os.Exit(1)
	}

	for _, name := range []string{"pizza", "sushi", "taco", "burger"} {
		added, err := w.AddStore(ctx, name)
		switch {
		case errors.Is(err, storewatch.ErrStoreNotFound):
			fmt.Printf("  %q: not found (expected for the demo)\n", name)
		case err != nil:
			slog.Error("failed to add store", "name", name, "error", err)
			os.Exit(1)
		default:
			fmt.Printf("  tracking %s\n", added.Title)
		}
	}

	fmt.Println()
	fmt.Println("  storewatch demo")
	fmt.Println()
	fmt.Printf("  Address:    %s\n", address)
	fmt.Println("  Status API: http://localhost:8080/api/stores")
	fmt.Println("  Live feed:  curl -N http://localhost:8080/api/sse")
	fmt.Println()
	fmt.Println("  Stores flip between OPEN and CLOSED every 20-60s.")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	if err := w.Start(ctx); err != nil {
		slog.Error("watcher error", "error", err)
		os.Exit(1)
	}
}
