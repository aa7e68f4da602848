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

type UsersHandler struct {
	auth     services.AuthService
	validate *validator.Validate
}

func NewUsersHandler(auth services.AuthService, v *validator.Validate) *UsersHandler {
	return &UsersHandler{auth: auth, validate: v}
}

func renderUser(u *models.User) types.UserResponse {
	return types.UserResponse{Email: u.Email, Name: u.Name}
}

// Create godoc
// @Summary  Create an account
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    body body types.CreateUserRequest true "account"
// @Success  201 {object} types.APIResponse{data=types.UserResponse}
// @Failure  400 {object} types.APIResponse
// @Router   /users/ [post]
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.auth.CreateUser(r.Context(), services.NewUser{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, renderUser(u))
}

// Token godoc
// @Summary  Issue an auth token
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    body body types.TokenRequest true "credentials"
// @Success  200 {object} types.APIResponse{data=types.TokenResponse}
// @Failure  400 {object} types.APIResponse
// @Router   /users/token/ [post]
func (h *UsersHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req types.TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	token, _, err := h.auth.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, types.TokenResponse{Token: token})
}

// Me godoc
// @Summary  Current user's profile
// @Tags     users
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} types.APIResponse{data=types.UserResponse}
// @Failure  401 {object} types.APIResponse
// @Router   /users/me/ [get]
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, renderUser(middleware.CurrentUser(r.Context())))
}

// PatchMe godoc
// @Summary  Update some profile fields
// @Tags     users
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body types.ProfilePatchRequest true "changes"
// @Success  200 {object} types.APIResponse{data=types.UserResponse}
// @Failure  400 {object} types.APIResponse
// @Router   /users/me/ [patch]
func (h *UsersHandler) PatchMe(w http.ResponseWriter, r *http.Request) {
	var req types.ProfilePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.updateMe(w, r, req, models.ProfilePatch{Email: req.Email, Name: req.Name, Password: req.Password})
}

// ReplaceMe godoc
// @Summary  Replace the profile
// @Tags     users
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body types.ProfileReplaceRequest true "profile"
// @Success  200 {object} types.APIResponse{data=types.UserResponse}
// @Failure  400 {object} types.APIResponse
// @Router   /users/me/ [put]
func (h *UsersHandler) ReplaceMe(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileReplaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.updateMe(w, r, req, models.ProfilePatch{Email: req.Email, Name: req.Name, Password: req.Password})
}

func (h *UsersHandler) updateMe(w http.ResponseWriter, r *http.Request, req any, patch models.ProfilePatch) {
	if err := validators.Struct(h.validate, req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.auth.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, renderUser(u))
}
