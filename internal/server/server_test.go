package server

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/storewatch/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ms := store.NewMemoryStore()
	records := []store.Record{
		{ID: "s1", Title: "Joe's Pizza", Image: "https://img/1.jpg", Status: sql.NullString{String: "OPEN", Valid: true}},
		{ID: "s2", Title: "Taco Town"},
	}
	for _, r := range records {
		if err := ms.Insert(context.Background(), r); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	return ms
}

func strPtr(s string) *string { return &s }

// sseData extracts the JSON payloads of all "data:" lines.
func sseData(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			out = append(out, strings.TrimPrefix(line, "data: "))
		}
	}
	return out
}

func TestHandleStores(t *testing.T) {
	srv := NewServer(seededStore(t), NewHub(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got []storeView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Number != 1 || got[0].ID != "s1" || got[0].Status == nil || *got[0].Status != "OPEN" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Number != 2 || got[1].Status != nil {
		t.Errorf("got[1] = %+v, want number 2 with null status", got[1])
	}
}

func TestHandleStores_NullStatusIsJSONNull(t *testing.T) {
	srv := NewServer(seededStore(t), NewHub(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	if !strings.Contains(rec.Body.String(), `"status":null`) {
		t.Errorf("body = %s, want a null status", rec.Body.String())
	}
}

func TestHandleStores_Empty(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), NewHub(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

type brokenLister struct{}

func (brokenLister) List(context.Context) ([]store.Record, error) {
	return nil, errors.New("database is locked")
}

func TestHandleStores_ListError(t *testing.T) {
	srv := NewServer(brokenLister{}, NewHub(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), NewHub(), 0, testLogger())

	for _, path := range []string{"/api/stores", "/healthz"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), NewHub(), 0, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("got %d %q, want 200 \"ok\\n\"", rec.Code, rec.Body.String())
	}
}

func TestHandleSSE_SendsLatestOnConnect(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{StoreID: "s1", Title: "Joe's Pizza", Outcome: "notified", Current: strPtr("OPEN")})
	hub.Publish(Event{StoreID: "s2", Title: "Taco Town", Outcome: "unchanged"})

	srv := NewServer(store.NewMemoryStore(), hub, 0, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	data := sseData(rec.Body.String())
	if len(data) != 2 {
		t.Fatalf("events = %d, want 2: %s", len(data), rec.Body.String())
	}

	var ev Event
	if err := json.Unmarshal([]byte(data[0]), &ev); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if ev.StoreID != "s1" || ev.Current == nil || *ev.Current != "OPEN" {
		t.Errorf("first event = %+v", ev)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	hub := NewHub()
	srv := NewServer(store.NewMemoryStore(), hub, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	hub.Publish(Event{StoreID: "fresh", Outcome: "notified"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	if !strings.Contains(rec.Body.String(), `"store_id":"fresh"`) {
		t.Errorf("response should contain streamed event, got: %s", rec.Body.String())
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), NewHub(), 0, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expected := map[string]string{
		"Content-Type":  "text/event-stream",
		"Cache-Control": "no-cache",
		"Connection":    "keep-alive",
	}
	for key, want := range expected {
		if got := rec.Header().Get(key); got != want {
			t.Errorf("header %s = %q, want %q", key, got, want)
		}
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
}

func (n *nonFlushWriter) Header() http.Header         { return n.header }
func (n *nonFlushWriter) Write(b []byte) (int, error) { return len(b), nil }
func (n *nonFlushWriter) WriteHeader(statusCode int)  { n.statusCode = statusCode }

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), NewHub(), 0, testLogger())
	w := &nonFlushWriter{header: make(http.Header)}

	srv.handleSSE(w, httptest.NewRequest(http.MethodGet, "/api/sse", nil))

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.statusCode, http.StatusInternalServerError)
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{StoreID: "s1"})
	srv := NewServer(store.NewMemoryStore(), hub, 0, testLogger())

	serverCtx, serverCancel := context.WithCancel(context.Background())

	numClients := 10
	var wg sync.WaitGroup
	started := make(chan struct{})
	var startedCount atomic.Int32

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)
			rec := httptest.NewRecorder()

			if startedCount.Add(1) == int32(numClients) {
				close(started)
			}
			srv.handleSSE(rec, req)
		}()
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("clients did not start in time")
	}
	time.Sleep(50 * time.Millisecond)

	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}
}

// TestServer_StartAndShutdown exercises a real listener on an ephemeral port.
func TestServer_StartAndShutdown(t *testing.T) {
	hub := NewHub()
	srv := NewServer(seededStore(t), hub, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	base := fmt.Sprintf("http://127.0.0.1:%d", srv.Addr().(*net.TCPAddr).Port)

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}

	sse, err := http.Get(base + "/api/sse")
	if err != nil {
		t.Fatalf("GET /api/sse error = %v", err)
	}
	defer func() { _ = sse.Body.Close() }()

	hub.Publish(Event{StoreID: "live", Outcome: "updated"})

	lines := make(chan string, 1)
	go func() {
		sc := bufio.NewScanner(sse.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- sc.Text()
				return
			}
		}
	}()
	select {
	case line := <-lines:
		if !strings.Contains(line, `"store_id":"live"`) {
			t.Errorf("event = %s, want store live", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no SSE event received")
	}

	// the SSE connection must not block shutdown
	cancel()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return
		}
		_ = resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server still accepting connections after shutdown")
}

func TestServer_StartPortInUse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := NewServer(store.NewMemoryStore(), NewHub(), 0, testLogger())
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	port := first.Addr().(*net.TCPAddr).Port

	second := NewServer(store.NewMemoryStore(), NewHub(), port, testLogger())
	if err := second.Start(ctx); err == nil {
		t.Error("Start() error = nil, want bind failure")
	}
}
