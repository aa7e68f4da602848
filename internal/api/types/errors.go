package types

import (
	"errors"
	"net/http"

	appErr "github.com/recipebook/api/pkg/errors"
)

// FromAppError renders err for clients. Errors without a code are reported
// as internal without their text.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		msg := e.Message
		if e.Code == appErr.CodeInternal {
			msg = "internal server error"
		}
		return &APIError{Code: string(e.Code), Message: msg, Fields: e.Fields}
	}
	return &APIError{Code: string(appErr.CodeInternal), Message: "internal server error"}
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case appErr.CodeConflict:
		return http.StatusConflict
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
