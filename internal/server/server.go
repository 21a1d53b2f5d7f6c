package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jpalmerr/storewatch/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// Must be <= shutdownTimeout.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Lister provides the tracked stores.
type Lister interface {
	List(ctx context.Context) ([]store.Record, error)
}

// storeView is the JSON form of a tracked store.
type storeView struct {
	Number int     `json:"number"`
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Image  string  `json:"image"`
	Status *string `json:"status"`
}

// Server serves the read-only status API.
//
// Routes:
//   - GET /api/stores: tracked stores as JSON
//   - GET /api/sse: poll results as Server-Sent Events
//   - GET /healthz: liveness
type Server struct {
	stores     Lister
	hub        *Hub
	port       int
	httpServer *http.Server
	addr       net.Addr
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server]. Port 0 binds an ephemeral port.
//
// The server is not started until [Server.Start] is called.
func NewServer(stores Lister, hub *Hub, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		stores: stores,
		hub:    hub,
		port:   port,
		logger: logger,
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stores", s.handleStores)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start returns once the listener is bound. The server shuts down gracefully
// when ctx is cancelled, with a 5-second timeout for in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// handleStores returns all tracked stores, numbered as the CLI numbers them.
func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.stores.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list stores", "error", err)
		http.Error(w, "failed to list stores", http.StatusInternalServerError)
		return
	}

	views := make([]storeView, len(records))
	for i, rec := range records {
		views[i] = storeView{
			Number: i + 1,
			ID:     rec.ID,
			Title:  rec.Title,
			Image:  rec.Image,
		}
		if rec.Status.Valid {
			status := rec.Status.String
			views[i].Status = &status
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		s.logger.Error("failed to encode stores response", "error", err)
	}
}

// handleSSE streams poll events via Server-Sent Events.
//
// Each write carries a deadline so a stalled client cannot pin the handler
// past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	// commit headers so clients see the stream before the first event
	if err := rc.Flush(); err != nil {
		return
	}

	for _, ev := range s.hub.Latest() {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}
