// Standalone mock delivery API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/storewatch add pizza -c example/storewatch.yaml
//	go run ./cmd/storewatch run -c example/storewatch.yaml
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/storewatch/internal/ubereats/fakeapi"
)

func main() {
	fmt.Println("Mock delivery API starting on :9999")
	fmt.Println("Stores cycle through: OPEN → CLOSED → OPEN")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	api := fakeapi.New("221B Baker Street, London")
	stores := []fakeapi.Store{
		{ID: "mock-pizza", Title: "Pizza Place", State: "OPEN"},
		{ID: "mock-sushi", Title: "Sushi Corner", State: "CLOSED"},
		{ID: "mock-tacos", Title: "Taco Stand", State: "OPEN"},
	}
	for _, st := range stores {
		api.PutStore(st)
	}

	go func() {
		states := make(map[string]string, len(stores))
		for _, st := range stores {
			states[st.ID] = st.State
		}
		for {
			time.Sleep(time.Duration(20+rand.Intn(41)) * time.Second)
			st := stores[rand.Intn(len(stores))]
			next := "OPEN"
			if states[st.ID] == "OPEN" {
				next = "CLOSED"
			}
			slog.Info("status change", "store", st.Title, "from", states[st.ID], "to", next)
			states[st.ID] = next
			api.SetState(st.ID, next)
		}
	}()

	if err := http.ListenAndServe(":9999", api); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
