package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/platecost/internal/demo"
	platehttp "github.com/kitchenops/platecost/internal/http"
	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/service"
	"github.com/kitchenops/platecost/internal/store/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	shared, err := sqlite.New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = shared.Close(context.Background()) })

	return New(
		service.NewSupplierService(shared),
		service.NewIngredientService(shared),
		service.NewRecipeService(shared),
		service.NewCostService(shared),
	)
}

// newDemoHandler wraps the server routes in the demo session middleware, the
// same shape the server command builds.
func newDemoHandler(t *testing.T, maxSessions int) (http.Handler, *demo.Registry) {
	t.Helper()
	registry := demo.NewRegistry(sqlite.NewFactory(), demo.Config{
		TTL:         time.Minute,
		MaxSessions: maxSessions,
	}, zerolog.Nop())
	t.Cleanup(func() { registry.Shutdown(context.Background()) })

	middleware := platehttp.DemoSession(registry, platehttp.SessionConfig{
		TTL:    time.Minute,
		Bypass: platehttp.DefaultBypassRules(),
	})
	return middleware(newTestServer(t).Routes()), registry
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSupplierLifecycle(t *testing.T) {
	handler := newTestServer(t).Routes()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/suppliers",
		map[string]string{"name": "Greenfields", "email": "orders@greenfields.test"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var supplier models.Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &supplier))
	require.Equal(t, "Greenfields", supplier.Name)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/suppliers/"+supplier.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/suppliers",
		map[string]string{"name": "Greenfields"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/suppliers/"+supplier.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/suppliers/"+supplier.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationAndBadInput(t *testing.T) {
	handler := newTestServer(t).Routes()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/ingredients",
		map[string]any{"unit": "g", "unitCost": 1.0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingredients", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed id reads as an unknown resource.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/recipes/not-a-uuid", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeCostEndpoint(t *testing.T) {
	handler := newTestServer(t).Routes()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/ingredients",
		map[string]any{"name": "flour", "unit": "g", "unitCost": 0.002})
	require.Equal(t, http.StatusCreated, rec.Code)
	var flour models.Ingredient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flour))

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/recipes", map[string]any{
		"name":     "bread",
		"servings": 2,
		"ingredients": []map[string]any{
			{"ingredientId": flour.ID, "quantity": 500},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var recipe models.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipe))

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%s/cost", recipe.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var breakdown service.CostBreakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakdown))
	require.InDelta(t, 1.0, breakdown.TotalCost, 1e-9)
	require.InDelta(t, 0.5, breakdown.CostPerServing, 1e-9)
}

func TestDemoFlow(t *testing.T) {
	handler, registry := newDemoHandler(t, 100)

	// First request: no cookie, new session issued, write succeeds.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/ingredients",
		map[string]any{"name": "flour", "unit": "g", "unitCost": 0.002})
	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	var flour models.Ingredient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flour))

	// Second request with the cookie reads back the same data.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ingredients/"+flour.ID.String(), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Ingredient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, flour.ID, got.ID)

	// A different session never sees it.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ingredients/"+flour.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A cookie naming an absent session gets 410, not a fresh session.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ingredients", nil,
		&http.Cookie{Name: cookie.Name, Value: "gone-session"})
	require.Equal(t, http.StatusGone, rec.Code)

	require.Equal(t, 2, registry.Len())
}

func TestDemoFlowCapacity(t *testing.T) {
	handler, registry := newDemoHandler(t, 3)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/ingredients", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 3, registry.Len())

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/ingredients", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, 3, registry.Len())
}

func TestDemoFlowBypassesHealthz(t *testing.T) {
	handler, registry := newDemoHandler(t, 1)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Result().Cookies())
	require.Equal(t, 0, registry.Len())
}
