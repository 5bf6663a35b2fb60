package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kitchenops/platecost/internal/demo"
)

// SessionConfig configures the demo session boundary middleware.
type SessionConfig struct {
	// CookieName carries the opaque session id. Default: "platecost_demo".
	CookieName string

	// TTL drives the cookie Max-Age; it should match the registry TTL so
	// the cookie and the server-side entry expire together.
	TTL time.Duration

	// Secure sets the Secure cookie attribute. Enable in production.
	Secure bool

	Bypass BypassRules
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *SessionConfig) ApplyDefaults() {
	if c.CookieName == "" {
		c.CookieName = "platecost_demo"
	}
	if c.TTL == 0 {
		c.TTL = 30 * time.Minute
	}
}

// errorBody is the structured error envelope for programmatic callers.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// expiredFragment is served to htmx-originated requests whose session is
// gone, giving the page a "start over" affordance in place.
const expiredFragment = `<div class="demo-expired">
  <p>Your demo session has expired.</p>
  <a href="/" class="button">Start a new session</a>
</div>
`

// DemoSession binds every non-bypassed request to a demo session.
//
// No cookie: a new session is created and its id set as a cookie; the request
// proceeds with the fresh store bound to the context. A cookie naming an
// absent session gets 410 Gone rather than a silent new session, so clients
// never mistake a fresh empty database for their old one. Registry capacity
// maps to 503.
func DemoSession(registry *demo.Registry, cfg SessionConfig) func(http.Handler) http.Handler {
	cfg.ApplyDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Bypass.Match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			log := zerolog.Ctx(r.Context())

			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil {
				// First visit: allocate a session.
				session, err := registry.Create(r.Context())
				if err != nil {
					if errors.Is(err, demo.ErrCapacityExceeded) {
						log.Warn().Msg("Demo session capacity exceeded")
						writeError(w, http.StatusServiceUnavailable, "demo_capacity",
							"all demo sessions are in use, please retry in a few minutes")
						return
					}
					log.Error().Err(err).Msg("Failed to create demo session")
					writeError(w, http.StatusInternalServerError, "demo_unavailable",
						"could not start a demo session")
					return
				}

				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    session.ID,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})

				next.ServeHTTP(w, r.WithContext(demo.WithStore(r.Context(), session.Store)))
				return
			}

			session, ok := registry.Get(cookie.Value)
			if !ok {
				log.Debug().Msg("Demo session cookie references an evicted session")
				writeSessionGone(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(demo.WithStore(r.Context(), session.Store)))
		})
	}
}

// writeSessionGone answers an expired or unknown session: an HTML fragment
// for in-page partial updates, a JSON envelope for everything else.
func writeSessionGone(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(expiredFragment))
		return
	}

	writeError(w, http.StatusGone, "session_expired",
		"your demo session has expired, start a new one from the home page")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: message})
}
