package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/recipebook/api/internal/api/middleware"
	"github.com/recipebook/api/internal/api/types"
	"github.com/recipebook/api/internal/api/validators"
	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/services"
)

type taxon[T any] interface {
	*T
	Ident() uint
	Label() string
}

// TaxonomyHandler serves the tag and ingredient endpoints, which behave the same.
type TaxonomyHandler[T any, P taxon[T]] struct {
	svc      services.TaxonomyService[T]
	validate *validator.Validate
}

func NewTagsHandler(svc services.TaxonomyService[models.Tag], v *validator.Validate) *TaxonomyHandler[models.Tag, *models.Tag] {
	return &TaxonomyHandler[models.Tag, *models.Tag]{svc: svc, validate: v}
}

func NewIngredientsHandler(svc services.TaxonomyService[models.Ingredient], v *validator.Validate) *TaxonomyHandler[models.Ingredient, *models.Ingredient] {
	return &TaxonomyHandler[models.Ingredient, *models.Ingredient]{svc: svc, validate: v}
}

func (h *TaxonomyHandler[T, P]) render(rec *T) types.TaxonResponse {
	p := P(rec)
	return types.TaxonResponse{ID: p.Ident(), Name: p.Label()}
}

// List returns the caller's records, name descending. With ?page= one page
// is returned and meta carries the totals.
func (h *TaxonomyHandler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	page, size, paged, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]types.TaxonResponse, 0, len(items))
	for i := range items {
		out = append(out, h.render(&items[i]))
	}
	resp := types.APIResponse{Success: true, Data: out}
	if paged {
		resp.Meta = &types.Meta{Page: page, PageSize: size, Total: total}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create returns the caller's record with this name, creating it if needed:
// 201 when created, 200 when it already existed.
func (h *TaxonomyHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	var req types.NameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, created, err := h.svc.GetOrCreate(r.Context(), middleware.GetUserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeData(w, status, h.render(rec))
}

func (h *TaxonomyHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.svc.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, h.render(rec))
}

// Update renames the record. PUT and PATCH are the same since name is the
// only writable field.
func (h *TaxonomyHandler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.NameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.svc.Rename(r.Context(), middleware.GetUserID(r.Context()), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, h.render(rec))
}

func (h *TaxonomyHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
