package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/recipebook/api/internal/api/types"
)

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: code, Message: msg},
	})
}
