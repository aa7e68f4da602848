package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/recipebook/api/internal/api/middleware"
	"github.com/recipebook/api/internal/api/types"
	appErr "github.com/recipebook/api/pkg/errors"
	"github.com/recipebook/api/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxJSONBody     = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// decodeJSON reads a JSON object body into dst. Unknown keys are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return appErr.New(appErr.CodeInvalid, "request body is empty")
		}
		return appErr.Wrap(err, appErr.CodeInvalid, "invalid json")
	}
	return nil
}

// pathID parses the {id} URL parameter. Anything but a positive integer
// cannot name a record, so it is reported as not found.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, appErr.New(appErr.CodeNotFound, "not found")
	}
	return uint(id), nil
}

// pagination reads page and page_size. ok is false when no page was asked for.
func pagination(r *http.Request) (page, size int, ok bool, err error) {
	q := r.URL.Query()
	if q.Get("page") == "" {
		return 0, 0, false, nil
	}
	page, perr := strconv.Atoi(q.Get("page"))
	if perr != nil || page < 1 {
		return 0, 0, false, appErr.Invalid("page", "Invalid page.")
	}
	size = defaultPageSize
	if s := q.Get("page_size"); s != "" {
		size, perr = strconv.Atoi(s)
		if perr != nil || size < 1 {
			return 0, 0, false, appErr.Invalid("page_size", "Invalid page size.")
		}
		if size > maxPageSize {
			size = maxPageSize
		}
	}
	return page, size, true, nil
}

// MethodNotAllowed answers 405 with the JSON envelope.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, appErr.New(appErr.CodeMethodNotAllowed, `Method "`+r.Method+`" not allowed.`))
}

// NotFound answers 404 with the JSON envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, appErr.New(appErr.CodeNotFound, "Not found."))
}
