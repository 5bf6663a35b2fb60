package server

import (
	"net/http"

	"github.com/kitchenops/platecost/internal/service"
)

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := s.ingredients.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ingredients)
}

func (s *Server) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	var in service.CreateIngredientInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ingredient, err := s.ingredients.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ingredient)
}

func (s *Server) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ingredient, err := s.ingredients.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ingredient)
}

func (s *Server) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in service.CreateIngredientInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ingredient, err := s.ingredients.Update(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ingredient)
}

func (s *Server) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.ingredients.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
