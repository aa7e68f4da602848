package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/recipebook/api/internal/api/middleware"
	"github.com/recipebook/api/internal/api/types"
	"github.com/recipebook/api/internal/api/validators"
	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/services"
	appErr "github.com/recipebook/api/pkg/errors"
)

type RecipesHandler struct {
	recipes   services.RecipeService
	validate  *validator.Validate
	maxUpload int64
}

func NewRecipesHandler(recipes services.RecipeService, v *validator.Validate, maxUpload int64) *RecipesHandler {
	return &RecipesHandler{recipes: recipes, validate: v, maxUpload: maxUpload}
}

func (h *RecipesHandler) render(rec *models.Recipe) types.RecipeResponse {
	out := types.RecipeResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		TimeMinutes: rec.TimeMinutes,
		Price:       rec.Price.StringFixed(2),
		Link:        rec.Link,
		Tags:        make([]types.TaxonResponse, 0, len(rec.Tags)),
		Ingredients: make([]types.TaxonResponse, 0, len(rec.Ingredients)),
	}
	for _, t := range rec.Tags {
		out.Tags = append(out.Tags, types.TaxonResponse{ID: t.ID, Name: t.Name})
	}
	for _, i := range rec.Ingredients {
		out.Ingredients = append(out.Ingredients, types.TaxonResponse{ID: i.ID, Name: i.Name})
	}
	return out
}

func (h *RecipesHandler) renderDetail(rec *models.Recipe) types.RecipeDetailResponse {
	return types.RecipeDetailResponse{
		RecipeResponse: h.render(rec),
		Description:    rec.Description,
		Image:          h.imageURL(rec),
	}
}

func (h *RecipesHandler) imageURL(rec *models.Recipe) *string {
	if rec.Image == "" {
		return nil
	}
	u := h.recipes.ImageURL(rec.Image)
	return &u
}

// List godoc
// @Summary  List own recipes, newest first
// @Tags     recipes
// @Produce  json
// @Security BearerAuth
// @Param    page      query int false "page number"
// @Param    page_size query int false "page size"
// @Success  200 {object} types.APIResponse{data=[]types.RecipeResponse}
// @Router   /recipes/ [get]
func (h *RecipesHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, paged, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := h.recipes.List(r.Context(), middleware.GetUserID(r.Context()), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]types.RecipeResponse, 0, len(items))
	for i := range items {
		out = append(out, h.render(&items[i]))
	}
	resp := types.APIResponse{Success: true, Data: out}
	if paged {
		resp.Meta = &types.Meta{Page: page, PageSize: size, Total: total}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create godoc
// @Summary  Create a recipe with nested tags and ingredients
// @Tags     recipes
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body types.RecipeWriteRequest true "recipe"
// @Success  201 {object} types.APIResponse{data=types.RecipeDetailResponse}
// @Failure  400 {object} types.APIResponse
// @Router   /recipes/ [post]
func (h *RecipesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.RecipeWriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	in := services.RecipeInput{
		Title:       *req.Title,
		TimeMinutes: *req.TimeMinutes,
		Price:       *req.Price,
		Tags:        names(req.Tags),
		Ingredients: names(req.Ingredients),
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Link != nil {
		in.Link = *req.Link
	}
	rec, err := h.recipes.Create(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, h.renderDetail(rec))
}

// Get godoc
// @Summary  Recipe detail
// @Tags     recipes
// @Produce  json
// @Security BearerAuth
// @Param    id path int true "recipe id"
// @Success  200 {object} types.APIResponse{data=types.RecipeDetailResponse}
// @Failure  404 {object} types.APIResponse
// @Router   /recipes/{id}/ [get]
func (h *RecipesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.recipes.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, h.renderDetail(rec))
}

// Update replaces a recipe (PUT). Title, time_minutes and price are required.
func (h *RecipesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req types.RecipeWriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, req, services.RecipeChanges{
		Patch: models.RecipePatch{
			Title:       req.Title,
			Description: req.Description,
			TimeMinutes: req.TimeMinutes,
			Price:       req.Price,
			Link:        req.Link,
		},
		Tags:        optionalNames(req.Tags),
		Ingredients: optionalNames(req.Ingredients),
	})
}

// Patch changes only the fields present in the body.
func (h *RecipesHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req types.RecipePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, req, services.RecipeChanges{
		Patch: models.RecipePatch{
			Title:       req.Title,
			Description: req.Description,
			TimeMinutes: req.TimeMinutes,
			Price:       req.Price,
			Link:        req.Link,
		},
		Tags:        optionalNames(req.Tags),
		Ingredients: optionalNames(req.Ingredients),
	})
}

func (h *RecipesHandler) update(w http.ResponseWriter, r *http.Request, req any, ch services.RecipeChanges) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.recipes.Update(r.Context(), middleware.GetUserID(r.Context()), id, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, h.renderDetail(rec))
}

// Delete godoc
// @Summary  Delete a recipe
// @Tags     recipes
// @Security BearerAuth
// @Param    id path int true "recipe id"
// @Success  204
// @Failure  404 {object} types.APIResponse
// @Router   /recipes/{id}/ [delete]
func (h *RecipesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.recipes.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage godoc
// @Summary  Attach an image to a recipe
// @Tags     recipes
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    id    path     int  true "recipe id"
// @Param    image formData file true "JPEG, PNG or GIF"
// @Success  200 {object} types.APIResponse{data=types.RecipeImageResponse}
// @Failure  400 {object} types.APIResponse
// @Router   /recipes/{id}/upload-image/ [post]
func (h *RecipesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, appErr.Invalid("image", "The submitted file is too large."))
			return
		}
		writeError(w, r, appErr.Invalid("image", "No file was submitted."))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, appErr.Invalid("image", "No file was submitted."))
		return
	}
	defer file.Close()

	rec, err := h.recipes.AttachImage(r.Context(), middleware.GetUserID(r.Context()), id, header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, types.RecipeImageResponse{ID: rec.ID, Image: h.imageURL(rec)})
}

func names(in *[]types.NameRequest) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(*in))
	for _, n := range *in {
		out = append(out, n.Name)
	}
	return out
}

// optionalNames keeps the difference between a missing list (nil) and an
// empty one.
func optionalNames(in *[]types.NameRequest) *[]string {
	if in == nil {
		return nil
	}
	out := names(in)
	return &out
}
