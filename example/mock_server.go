package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/jpalmerr/storewatch/internal/ubereats/fakeapi"
)

var demoStores = []fakeapi.Store{
	{ID: "demo-pizza", Title: "Pizza Place", Image: "https://example.com/pizza.png", State: "OPEN"},
	{ID: "demo-sushi", Title: "Sushi Corner", Image: "https://example.com/sushi.png", State: "CLOSED"},
	{ID: "demo-tacos", Title: "Taco Stand", Image: "https://example.com/tacos.png", State: "OPEN"},
}

// StartMockAPI serves a fake delivery API on addr whose stores flip between
// OPEN and CLOSED every 20-60 seconds.
// Call this in a goroutine before opening the Watcher.
func StartMockAPI(addr string) {
	api := fakeapi.New("221B Baker Street, London")
	for _, st := range demoStores {
		api.PutStore(st)
	}

	for _, st := range demoStores {
		go flipStates(api, st)
	}

	if err := http.ListenAndServe(addr, api); err != nil {
		slog.Error("mock api error", "error", err)
	}
}

func flipStates(api *fakeapi.Server, st fakeapi.Store) {
	state := st.State
	for {
		time.Sleep(time.Duration(20+rand.Intn(41)) * time.Second)
		next := "OPEN"
		if state == "OPEN" {
			next = "CLOSED"
		}
		api.SetState(st.ID, next)
		slog.Info("status change", "store", st.Title, "from", state, "to", next)
		state = next
	}
}
