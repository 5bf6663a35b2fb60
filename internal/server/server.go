// Package server exposes the REST surface: CRUD for suppliers, ingredients,
// and recipes, and the recipe cost report. Handlers are store-agnostic; the
// demo session middleware decides which database a request sees.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kitchenops/platecost/internal/service"
	"github.com/kitchenops/platecost/internal/store"
)

// Server wires the business services to HTTP routes.
type Server struct {
	suppliers   *service.SupplierService
	ingredients *service.IngredientService
	recipes     *service.RecipeService
	costs       *service.CostService
}

// New creates a server over an already-constructed service set.
func New(suppliers *service.SupplierService, ingredients *service.IngredientService,
	recipes *service.RecipeService, costs *service.CostService) *Server {
	return &Server{
		suppliers:   suppliers,
		ingredients: ingredients,
		recipes:     recipes,
		costs:       costs,
	}
}

// Routes registers all API routes on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /api/v1/suppliers", s.handleListSuppliers)
	mux.HandleFunc("POST /api/v1/suppliers", s.handleCreateSupplier)
	mux.HandleFunc("GET /api/v1/suppliers/{id}", s.handleGetSupplier)
	mux.HandleFunc("PUT /api/v1/suppliers/{id}", s.handleUpdateSupplier)
	mux.HandleFunc("DELETE /api/v1/suppliers/{id}", s.handleDeleteSupplier)

	mux.HandleFunc("GET /api/v1/ingredients", s.handleListIngredients)
	mux.HandleFunc("POST /api/v1/ingredients", s.handleCreateIngredient)
	mux.HandleFunc("GET /api/v1/ingredients/{id}", s.handleGetIngredient)
	mux.HandleFunc("PUT /api/v1/ingredients/{id}", s.handleUpdateIngredient)
	mux.HandleFunc("DELETE /api/v1/ingredients/{id}", s.handleDeleteIngredient)

	mux.HandleFunc("GET /api/v1/recipes", s.handleListRecipes)
	mux.HandleFunc("POST /api/v1/recipes", s.handleCreateRecipe)
	mux.HandleFunc("GET /api/v1/recipes/{id}", s.handleGetRecipe)
	mux.HandleFunc("PUT /api/v1/recipes/{id}", s.handleUpdateRecipe)
	mux.HandleFunc("DELETE /api/v1/recipes/{id}", s.handleDeleteRecipe)
	mux.HandleFunc("GET /api/v1/recipes/{id}/cost", s.handleRecipeCost)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} path segment. A malformed id is reported as 404,
// the same as an unknown one.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "no such resource")
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

// respondServiceError maps service and store errors to HTTP statuses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, store.ErrSupplierNotFound),
		errors.Is(err, store.ErrIngredientNotFound),
		errors.Is(err, store.ErrRecipeNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrDuplicateName):
		respondError(w, http.StatusConflict, "duplicate_name", err.Error())
	case errors.Is(err, store.ErrIngredientInUse):
		respondError(w, http.StatusConflict, "ingredient_in_use", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
