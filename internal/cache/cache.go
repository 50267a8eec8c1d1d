package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// FetchFunc performs the live upstream request when the cache cannot
// serve one.
type FetchFunc func() (status int, body any, header http.Header, err error)

type entry struct {
	expiry time.Time
	status int
	body   any
	header http.Header
}

// Store is an in-memory, success-only response cache. Writes replace any
// prior entry for the key and entries expire lazily; there is no
// background sweep and no size bound.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New builds a Store on the wall clock.
func New() *Store { return NewWithClock(time.Now) }

// NewWithClock builds a Store with an injectable clock.
func NewWithClock(now func() time.Time) *Store {
	return &Store{entries: make(map[string]entry), now: now}
}

// Key derives the cache key for a request. url.Values.Encode serializes
// parameters sorted by key, so insertion order never changes the key.
func Key(rawURL string, params url.Values) string {
	sum := sha256.Sum256([]byte(rawURL + "|" + params.Encode()))
	return hex.EncodeToString(sum[:])
}

// GetOrFetch returns a live cached response for the request or invokes
// fetch. Only status-200 responses are stored (a rate-limit or error
// response must never be replayed); ttl <= 0 disables the cache for the
// call entirely.
func (s *Store) GetOrFetch(rawURL string, params url.Values, ttl time.Duration, fetch FetchFunc) (int, any, http.Header, error) {
	if ttl <= 0 {
		return fetch()
	}

	key := Key(rawURL, params)
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && e.expiry.After(now) {
		return e.status, e.body, e.header, nil
	}

	status, body, header, err := fetch()
	if err != nil {
		return 0, nil, nil, err
	}
	if status == http.StatusOK {
		s.mu.Lock()
		s.entries[key] = entry{expiry: now.Add(ttl), status: status, body: body, header: header}
		s.mu.Unlock()
	}
	return status, body, header, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
