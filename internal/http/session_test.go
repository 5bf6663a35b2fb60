package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/platecost/internal/demo"
	"github.com/kitchenops/platecost/internal/store"
)

type fakeStore struct{}

func (fakeStore) Suppliers() store.SupplierStore     { return nil }
func (fakeStore) Ingredients() store.IngredientStore { return nil }
func (fakeStore) Recipes() store.RecipeStore         { return nil }
func (fakeStore) Close(context.Context) error        { return nil }

type fakeFactory struct {
	err error
}

func (f *fakeFactory) Create(context.Context) (store.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeStore{}, nil
}

func newTestRegistry(t *testing.T, factory demo.Factory, maxSessions int) *demo.Registry {
	t.Helper()
	registry := demo.NewRegistry(factory, demo.Config{
		TTL:         time.Minute,
		MaxSessions: maxSessions,
	}, zerolog.Nop())
	t.Cleanup(func() { registry.Shutdown(context.Background()) })
	return registry
}

func sessionHandler(t *testing.T, registry *demo.Registry, cfg SessionConfig) nethttp.Handler {
	t.Helper()
	inner := nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if _, ok := demo.StoreFromContext(r.Context()); ok {
			w.Header().Set("X-Store-Bound", "1")
		}
		w.WriteHeader(nethttp.StatusOK)
	})
	return DemoSession(registry, cfg)(inner)
}

func TestDemoSessionFirstVisitSetsCookie(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{}, 10)
	handler := sessionHandler(t, registry, SessionConfig{TTL: time.Minute})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/api/v1/recipes", nil))

	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Store-Bound"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, "platecost_demo", cookie.Name)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, nethttp.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, 60, cookie.MaxAge)

	_, ok := registry.Get(cookie.Value)
	require.True(t, ok)
}

func TestDemoSessionReturningVisitorKeepsSession(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{}, 10)
	handler := sessionHandler(t, registry, SessionConfig{})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(nethttp.MethodGet, "/", nil))
	cookie := first.Result().Cookies()[0]

	second := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/suppliers", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(second, req)

	require.Equal(t, nethttp.StatusOK, second.Code)
	require.Equal(t, "1", second.Header().Get("X-Store-Bound"))
	// No replacement cookie on a live session.
	require.Empty(t, second.Result().Cookies())
	require.Equal(t, 1, registry.Len())
}

func TestDemoSessionUnknownCookieGone(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{}, 10)
	handler := sessionHandler(t, registry, SessionConfig{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/recipes", nil)
	req.AddCookie(&nethttp.Cookie{Name: "platecost_demo", Value: "no-such-session"})
	handler.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusGone, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "session_expired", body.Error)

	// No silent replacement session.
	require.Empty(t, rec.Result().Cookies())
	require.Equal(t, 0, registry.Len())
}

func TestDemoSessionExpiredHTMXGetsFragment(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{}, 10)
	handler := sessionHandler(t, registry, SessionConfig{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/recipes", nil)
	req.AddCookie(&nethttp.Cookie{Name: "platecost_demo", Value: "no-such-session"})
	req.Header.Set("HX-Request", "true")
	handler.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusGone, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "demo-expired")
}

func TestDemoSessionCapacityExceeded(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{}, 1)
	handler := sessionHandler(t, registry, SessionConfig{})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(nethttp.MethodGet, "/", nil))
	require.Equal(t, nethttp.StatusOK, first.Code)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/", nil))

	require.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "demo_capacity", body.Error)
}

func TestDemoSessionFactoryFailure(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{err: errors.New("disk full")}, 10)
	handler := sessionHandler(t, registry, SessionConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/", nil))

	require.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	require.Equal(t, 0, registry.Len())
}

func TestDemoSessionBypassSkipsBinding(t *testing.T) {
	registry := newTestRegistry(t, &fakeFactory{}, 10)
	handler := sessionHandler(t, registry, SessionConfig{Bypass: DefaultBypassRules()})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))

	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Store-Bound"))
	require.Empty(t, rec.Result().Cookies())
	require.Equal(t, 0, registry.Len())
}
