// Package demo implements the per-visitor isolation layer behind trial mode:
// a bounded, TTL-evicting registry of ephemeral stores keyed by an opaque
// session id, plus the context binding that makes the current session's
// store visible to business services without parameter threading.
package demo

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"github.com/kitchenops/platecost/internal/store"
	"github.com/kitchenops/platecost/internal/telemetry"
)

// Sentinel errors for common error conditions
var (
	ErrCapacityExceeded = errors.New("demo session capacity exceeded")
	ErrSessionCreation  = errors.New("failed to create demo session store")
	ErrRegistryClosed   = errors.New("demo session registry is shut down")
)

// releaseTimeout bounds how long an eviction waits for the underlying
// store to close.
const releaseTimeout = 10 * time.Second

// Session is the unit of isolation: one visitor, one exclusively owned
// ephemeral store. All fields are immutable after creation.
type Session struct {
	ID        string
	Store     store.Store
	CreatedAt time.Time
}

// Factory creates one fresh, fully schema-applied ephemeral store per call.
type Factory interface {
	Create(ctx context.Context) (store.Store, error)
}

// Config bounds the registry.
type Config struct {
	// TTL is the fixed lifetime of a session from creation. Activity does
	// not renew it; the fixed window bounds worst-case resource lifetime.
	// Default: 30 minutes.
	TTL time.Duration

	// MaxSessions caps simultaneous sessions. Creations beyond the cap
	// fail instead of evicting an existing session. Default: 100.
	MaxSessions int
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = 30 * time.Minute
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = 100
	}
}

// entry pairs a session with its eviction timer. A reserved entry (nil
// session) holds a capacity slot while the factory is still building the
// store.
type entry struct {
	session *Session
	timer   *time.Timer
}

// Registry is the process-wide map of live demo sessions. Constructed once
// at startup and torn down by Shutdown; it is safe for concurrent use by
// request handlers and the per-entry eviction timers.
type Registry struct {
	cfg     Config
	factory Factory
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// NewRegistry creates a registry that builds ephemeral stores with factory.
func NewRegistry(factory Factory, cfg Config, logger zerolog.Logger) *Registry {
	cfg.ApplyDefaults()
	return &Registry{
		cfg:     cfg,
		factory: factory,
		logger:  logger,
		metrics: telemetry.GetMetrics(),
		entries: make(map[string]*entry),
	}
}

// Create allocates a new session with a fresh ephemeral store. Fails with
// ErrCapacityExceeded when MaxSessions are live; a factory failure is
// propagated and leaves no registry entry behind. The returned session's
// store is schema-ready before Create returns.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if len(r.entries) >= r.cfg.MaxSessions {
		r.mu.Unlock()
		r.metrics.DemoSessionsRejectedTotal.Add(ctx, 1)
		return nil, ErrCapacityExceeded
	}
	// Reserve the slot so concurrent creates cannot exceed the cap while
	// the store is still being built.
	r.entries[id] = &entry{}
	r.mu.Unlock()

	st, err := r.factory.Create(ctx)
	if err != nil {
		r.mu.Lock()
		delete(r.entries, id)
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}

	session := &Session{
		ID:        id,
		Store:     st,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	if r.closed {
		delete(r.entries, id)
		r.mu.Unlock()
		r.releaseStore(session)
		return nil, ErrRegistryClosed
	}
	e := r.entries[id]
	e.session = session
	e.timer = time.AfterFunc(r.cfg.TTL, func() {
		r.expire(id)
	})
	r.mu.Unlock()

	r.metrics.DemoSessionsCreatedTotal.Add(ctx, 1)
	r.metrics.DemoSessionsActive.Add(ctx, 1)

	r.logger.Debug().
		Str("session_id", id).
		Dur("ttl", r.cfg.TTL).
		Msg("Demo session created")

	return session, nil
}

// Get looks up a live session by id. It does not renew the session's TTL.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.session == nil {
		return nil, false
	}
	return e.session, true
}

// Destroy removes a session immediately, releasing its store. Destroying an
// absent id is a logged no-op.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.session == nil {
		r.mu.Unlock()
		r.logger.Debug().Str("session_id", id).Msg("Destroy of unknown demo session, ignoring")
		return
	}
	e.timer.Stop()
	delete(r.entries, id)
	r.mu.Unlock()

	r.evict(e.session, "destroyed")
}

// Len returns the number of occupied registry slots, reservations included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Shutdown evicts every session and refuses all further creates. Called once
// during process shutdown so no ephemeral store outlives the registry.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	var victims []*Session
	for id, e := range r.entries {
		if e.session == nil {
			continue
		}
		e.timer.Stop()
		victims = append(victims, e.session)
		delete(r.entries, id)
	}
	r.mu.Unlock()

	for _, session := range victims {
		r.evict(session, "shutdown")
	}

	r.logger.Info().Int("count", len(victims)).Msg("Demo session registry shut down")
}

// expire is the TTL timer callback for a single entry.
func (r *Registry) expire(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.session == nil {
		// Already destroyed explicitly; the timer lost the race.
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	r.mu.Unlock()

	r.evict(e.session, "expired")
}

// evict releases the session's store and updates the bookkeeping counters.
// The entry is already gone from the map; a release failure is logged and
// swallowed, never surfaced to any request.
func (r *Registry) evict(session *Session, reason string) {
	r.releaseStore(session)

	ctx := context.Background()
	r.metrics.DemoSessionsExpiredTotal.Add(ctx, 1)
	r.metrics.DemoSessionsActive.Add(ctx, -1)

	r.logger.Debug().
		Str("session_id", session.ID).
		Str("reason", reason).
		Time("created_at", session.CreatedAt).
		Msg("Demo session evicted")
}

func (r *Registry) releaseStore(session *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := session.Store.Close(ctx); err != nil {
		r.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("Failed to release demo store")
	}
}

// newSessionID returns an opaque, unguessable, cookie-safe identifier:
// 24 random bytes, base58 encoded.
func newSessionID() (string, error) {
	var buf [24]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base58.Encode(buf[:]), nil
}
