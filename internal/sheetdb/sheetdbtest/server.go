// Package sheetdbtest provides an in-memory stand-in for the sheet-backed
// store API, exposed over httptest. It implements the same endpoints the real
// store does (filtered GET, /search, POST, PATCH /{field}/{value}, DELETE)
// and adds failure knobs so tests can exercise retry and fallback paths.
package sheetdbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"gosembako/config"
	"gosembako/internal/sheetdb"
)

type Store struct {
	mu     sync.Mutex
	sheets map[string][]sheetdb.Row
	srv    *httptest.Server

	// FailNext makes the next N requests respond 500.
	FailNext int
	// RejectPatch makes every PATCH against the named sheet respond 400,
	// mimicking the real store's unreliable conditional update.
	RejectPatch map[string]bool
	// Requests records "METHOD path" for every call received.
	Requests []string
}

func New() *Store {
	s := &Store{
		sheets:      make(map[string][]sheetdb.Row),
		RejectPatch: make(map[string]bool),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Store) Close()      { s.srv.Close() }
func (s *Store) URL() string { return s.srv.URL }

// Config returns a store config pointing at this server with a retry base
// small enough for tests.
func (s *Store) Config() *config.StoreConfig {
	return &config.StoreConfig{
		BaseURL:     s.srv.URL,
		Timeout:     5 * time.Second,
		RetryBase:   time.Millisecond,
		MaxAttempts: 3,
	}
}

func (s *Store) Seed(sheet string, rows ...sheetdb.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = append(s.sheets[sheet], rows...)
}

// Rows returns a copy of the sheet's current contents.
func (s *Store) Rows(sheet string) []sheetdb.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheetdb.Row, len(s.sheets[sheet]))
	copy(out, s.sheets[sheet])
	return out
}

func (s *Store) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

func (s *Store) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, r.Method+" "+r.URL.Path)
	if s.FailNext > 0 {
		s.FailNext--
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	sheet := r.URL.Query().Get("sheet")
	if sheet == "" {
		http.Error(w, "missing sheet", http.StatusBadRequest)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, sheet)
	case http.MethodPost:
		s.handlePost(w, r, sheet)
	case http.MethodPatch, http.MethodDelete:
		parts := strings.Split(path, "/")
		if len(parts) < 2 {
			http.Error(w, "missing field/value", http.StatusBadRequest)
			return
		}
		field, value := parts[len(parts)-2], parts[len(parts)-1]
		if r.Method == http.MethodPatch {
			s.handlePatch(w, r, sheet, field, value)
		} else {
			s.handleDelete(w, sheet, field, value)
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Store) handleGet(w http.ResponseWriter, r *http.Request, sheet string) {
	matched := []sheetdb.Row{}
	for _, row := range s.sheets[sheet] {
		if matchesQuery(row, r) {
			matched = append(matched, row)
		}
	}
	_ = json.NewEncoder(w).Encode(matched)
}

func (s *Store) handlePost(w http.ResponseWriter, r *http.Request, sheet string) {
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var rows []sheetdb.Row
	if err := json.Unmarshal(payload.Data, &rows); err != nil {
		var single sheetdb.Row
		if err := json.Unmarshal(payload.Data, &single); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows = []sheetdb.Row{single}
	}
	s.sheets[sheet] = append(s.sheets[sheet], rows...)
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, `{"created": %d}`, len(rows))
}

func (s *Store) handlePatch(w http.ResponseWriter, r *http.Request, sheet, field, value string) {
	if s.RejectPatch[sheet] {
		http.Error(w, "patch not supported for this key", http.StatusBadRequest)
		return
	}
	var payload struct {
		Data sheetdb.Row `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated := 0
	for _, row := range s.sheets[sheet] {
		if row.String(field) == value {
			for k, v := range payload.Data {
				row[k] = v
			}
			updated++
		}
	}
	fmt.Fprintf(w, `{"updated": %d}`, updated)
}

func (s *Store) handleDelete(w http.ResponseWriter, sheet, field, value string) {
	kept := s.sheets[sheet][:0]
	deleted := 0
	for _, row := range s.sheets[sheet] {
		if row.String(field) == value {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.sheets[sheet] = kept
	fmt.Fprintf(w, `{"deleted": %d}`, deleted)
}

func matchesQuery(row sheetdb.Row, r *http.Request) bool {
	for key, vals := range r.URL.Query() {
		if key == "sheet" {
			continue
		}
		if row.String(key) != vals[0] {
			return false
		}
	}
	return true
}
