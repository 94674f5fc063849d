// Package attribution captures a referral code from an inbound link and keeps
// it on the client device until a registration consumes it or 30 days pass.
// It is the server-side stand-in for the storefront's localStorage slot: one
// browsing session, one slot, no concurrent consumers expected.
package attribution

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"sync"
	"time"

	"gosembako/internal/models"
)

type Tracker struct {
	mu    sync.Mutex
	path  string
	ttl   time.Duration
	state *models.Attribution

	// now is swappable in tests.
	now func() time.Time
}

// NewTracker loads any previously captured attribution from path. A missing
// or corrupt file starts empty; corruption is not an error worth failing
// startup over.
func NewTracker(path string, ttl time.Duration) (*Tracker, error) {
	t := &Tracker{path: path, ttl: ttl, now: time.Now}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return nil, err
	}
	var state models.Attribution
	if err := json.Unmarshal(data, &state); err == nil && state.Code != "" {
		t.state = &state
	}
	return t, nil
}

// Capture extracts the ref parameter from an inbound URL and persists it.
// Returns the code and whether one was found. A new capture overwrites any
// previous one, mirroring the storefront behavior.
func (t *Tracker) Capture(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	code := u.Query().Get("ref")
	if code == "" {
		return "", false
	}
	t.CaptureCode(code, rawURL)
	return code, true
}

// CaptureCode stores a known code directly (e.g. from a /r/:code link).
func (t *Tracker) CaptureCode(code, sourceURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = &models.Attribution{
		Code:       code,
		CapturedAt: t.now(),
		SourceURL:  sourceURL,
	}
	t.persist()
}

// Current returns the captured code if it is still within its validity
// window; an expired capture is evicted on the spot.
func (t *Tracker) Current() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return "", false
	}
	if t.now().Sub(t.state.CapturedAt) > t.ttl {
		t.state = nil
		t.persist()
		return "", false
	}
	return t.state.Code, true
}

// Consume returns the current code and clears it.
func (t *Tracker) Consume() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return "", false
	}
	if t.now().Sub(t.state.CapturedAt) > t.ttl {
		t.state = nil
		t.persist()
		return "", false
	}
	code := t.state.Code
	t.state = nil
	t.persist()
	return code, true
}

// persist writes the current state to disk; callers hold the lock. Failures
// degrade to in-memory-only tracking, which matches the best-effort nature of
// attribution.
func (t *Tracker) persist() {
	if t.state == nil {
		_ = os.Remove(t.path)
		return
	}
	data, err := json.Marshal(t.state)
	if err != nil {
		return
	}
	_ = os.WriteFile(t.path, data, 0o600)
}
