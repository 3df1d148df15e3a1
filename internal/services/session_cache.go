package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
)

const defaultMaxStoreSessions = 8

var (
	errSessionStoreClientRequired = errors.New("session store: engine client is required")

	// ErrSessionInvalidInput indicates the caller supplied invalid input.
	ErrSessionInvalidInput = errors.New("session store: invalid input")
)

// SessionStoreDeps wires the dependencies for the engine-session cache.
type SessionStoreDeps struct {
	Client           engine.Client
	MaxStoreSessions int
	Logger           func(ctx context.Context, event string, fields map[string]any)
}

// SessionStore caches engine sessions per browser session, keyed by store id.
// Switching stores does not destroy the previous store's session; both remain
// cached for fast switch-back, bounded by an LRU cap. All access to one
// browser session's entry is serialised by a per-entry mutex since concurrent
// requests from the same browser session race on the active session.
type SessionStore struct {
	client    engine.Client
	maxStores int
	logger    func(ctx context.Context, event string, fields map[string]any)

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	mu          sync.Mutex
	active      *engine.Session
	byStore     map[string]*engine.Session
	lru         []string
	storeConfig domain.StoreConfig
}

// NewSessionStore constructs a SessionStore enforcing dependency validation.
func NewSessionStore(deps SessionStoreDeps) (*SessionStore, error) {
	if deps.Client == nil {
		return nil, errSessionStoreClientRequired
	}

	maxStores := deps.MaxStoreSessions
	if maxStores <= 0 {
		maxStores = defaultMaxStoreSessions
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &SessionStore{
		client:    deps.Client,
		maxStores: maxStores,
		logger:    logger,
		entries:   make(map[string]*sessionEntry),
	}, nil
}

// GetOrCreate returns the engine session bound to the request's store,
// creating or switching as needed. The returned flag reports whether an
// active session existed whose store differed from the resolved store (a
// store switch). The fresh store config is always re-stored, even on reuse,
// since display preferences can change independently of the store id.
func (s *SessionStore) GetOrCreate(ctx context.Context, browserSessionID string, cfg domain.StoreConfig) (*engine.Session, bool, error) {
	if s == nil {
		return nil, false, ErrSessionInvalidInput
	}
	browserSessionID = strings.TrimSpace(browserSessionID)
	storeKey := strings.ToLower(strings.TrimSpace(cfg.ID))
	if browserSessionID == "" || storeKey == "" {
		return nil, false, ErrSessionInvalidInput
	}

	entry := s.entry(browserSessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	switched := entry.active != nil && !domain.SameStore(entry.active.StoreID(), cfg.ID)

	if entry.active == nil || switched {
		sess := entry.byStore[storeKey]
		if sess == nil {
			sess = engine.NewSession(s.client, cfg.ID, cfg.LanguageID)
			entry.byStore[storeKey] = sess
			s.logger(ctx, "session.engine_session_created", map[string]any{
				"storeId": cfg.ID,
			})
		}
		entry.active = sess
	}

	entry.touch(storeKey)
	s.evictStale(ctx, entry)
	entry.storeConfig = cfg

	return entry.active, switched, nil
}

// StoreConfig returns the store config last stored for the browser session.
func (s *SessionStore) StoreConfig(browserSessionID string) (domain.StoreConfig, bool) {
	if s == nil {
		return domain.StoreConfig{}, false
	}
	s.mu.Lock()
	entry, ok := s.entries[strings.TrimSpace(browserSessionID)]
	s.mu.Unlock()
	if !ok {
		return domain.StoreConfig{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.storeConfig, true
}

func (s *SessionStore) entry(browserSessionID string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[browserSessionID]
	if !ok {
		entry = &sessionEntry{byStore: make(map[string]*engine.Session)}
		s.entries[browserSessionID] = entry
	}
	return entry
}

// evictStale drops least-recently-used per-store sessions beyond the cap.
// The active session is never evicted. Caller holds entry.mu.
func (s *SessionStore) evictStale(ctx context.Context, entry *sessionEntry) {
	for len(entry.byStore) > s.maxStores && len(entry.lru) > 0 {
		victimKey := ""
		for _, key := range entry.lru {
			sess := entry.byStore[key]
			if sess != nil && sess == entry.active {
				continue
			}
			victimKey = key
			break
		}
		if victimKey == "" {
			return
		}

		victim := entry.byStore[victimKey]
		delete(entry.byStore, victimKey)
		entry.remove(victimKey)

		if victim != nil {
			if err := victim.Logout(ctx); err != nil {
				s.logger(ctx, "session.evict_logout_failed", map[string]any{
					"storeId": victim.StoreID(),
					"error":   err.Error(),
				})
			}
			s.logger(ctx, "session.engine_session_evicted", map[string]any{
				"storeId": victim.StoreID(),
			})
		}
	}
}

// touch marks the store key as most recently used. Caller holds entry.mu.
func (e *sessionEntry) touch(storeKey string) {
	e.remove(storeKey)
	e.lru = append(e.lru, storeKey)
}

func (e *sessionEntry) remove(storeKey string) {
	for i, key := range e.lru {
		if key == storeKey {
			e.lru = append(e.lru[:i], e.lru[i+1:]...)
			return
		}
	}
}
