// Package fakeapi is an in-process stand-in for the Uber Eats web API.
//
// It serves the three endpoints storewatch uses, backed by a mutable set of
// stores, and records every request so tests can assert on headers, form
// values and the session cookie.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Store is a remote store served by the fake.
type Store struct {
	ID    string
	Title string
	Image string
	State string
}

// Request is a recorded API call.
type Request struct {
	// Op is the API operation, e.g. "getStoreV1".
	Op string

	// Locale is the localeCode query parameter.
	Locale string

	// Form holds the decoded form body.
	Form url.Values

	// Header holds the request headers.
	Header http.Header

	// Location is the unescaped location cookie, empty if absent.
	Location string
}

// Server is a fake API. The zero value is not usable; call [New].
type Server struct {
	mu       sync.Mutex
	stores   map[string]Store
	order    []string
	failing  map[string]bool
	address  string
	rejected bool
	requests []Request
}

// New returns a fake that resolves any place to address.
func New(address string) *Server {
	return &Server{
		stores:  make(map[string]Store),
		failing: make(map[string]bool),
		address: address,
	}
}

// PutStore adds or replaces a store. Stores keep their first insertion order
// in search results.
func (s *Server) PutStore(st Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[st.ID]; !exists {
		s.order = append(s.order, st.ID)
	}
	s.stores[st.ID] = st
}

// SetState changes the availability state of an existing store.
func (s *Server) SetState(id, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stores[id]
	st.State = state
	s.stores[id] = st
}

// FailStore makes detail requests for id answer with a non-success status.
func (s *Server) FailStore(id string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = fail
}

// RejectAddress makes address resolution answer with a non-success status.
func (s *Server) RejectAddress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = true
}

// Requests returns a copy of all recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests were made for op.
func (s *Server) Count(op string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Op == op {
			n++
		}
	}
	return n
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	op := strings.TrimPrefix(r.URL.Path, "/api/")
	req := Request{
		Op:     op,
		Locale: r.URL.Query().Get("localeCode"),
		Form:   r.PostForm,
		Header: r.Header.Clone(),
	}
	if c, err := r.Cookie("uev2.loc"); err == nil {
		req.Location, _ = url.PathUnescape(c.Value)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	switch op {
	case "getDeliveryLocationV1":
		s.handleLocation(w, req)
	case "getSearchSuggestionsV1":
		s.handleSearch(w, req)
	case "getStoreV1":
		s.handleStore(w, req)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleLocation(w http.ResponseWriter, req Request) {
	s.mu.Lock()
	rejected, address := s.rejected, s.address
	s.mu.Unlock()

	if rejected {
		writeJSON(w, map[string]any{"status": "failure", "data": map[string]any{"message": "not found"}})
		return
	}
	writeJSON(w, map[string]any{
		"status": "success",
		"data": map[string]any{
			"id": req.Form.Get("placeId"),
			"address": map[string]any{
				"address1": address,
			},
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, req Request) {
	query := strings.ToLower(req.Form.Get("userQuery"))

	s.mu.Lock()
	suggestions := []any{}
	for _, id := range s.order {
		st := s.stores[id]
		if query == "" || !strings.Contains(strings.ToLower(st.Title), query) {
			continue
		}
		suggestions = append(suggestions, map[string]any{
			"type": "store",
			"store": map[string]any{
				"uuid":         st.ID,
				"title":        st.Title,
				"heroImageUrl": st.Image,
			},
		})
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"status": "success", "data": suggestions})
}

func (s *Server) handleStore(w http.ResponseWriter, req Request) {
	id := req.Form.Get("storeUuid")

	s.mu.Lock()
	st, exists := s.stores[id]
	failing := s.failing[id]
	s.mu.Unlock()

	if !exists || failing {
		writeJSON(w, map[string]any{"status": "failure", "data": map[string]any{}})
		return
	}
	writeJSON(w, map[string]any{
		"status": "success",
		"data": map[string]any{
			"uuid":  st.ID,
			"title": st.Title,
			"heroImageUrls": []any{
				map[string]any{"url": st.Image + "?w=small", "width": 240},
				map[string]any{"url": st.Image, "width": 550},
			},
			"storeInfoMetadata": map[string]any{
				"storeAvailablityStatus": map[string]any{
					"state": st.State,
				},
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
