package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors handlers wrap their failures with.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("document store failure")
)

// RespondError maps wrapped sentinel errors to HTTP responses using RFC7807.
// Store failures keep the underlying message intact so the admin UI can
// display it unchanged.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrStore):
		Problem(w, http.StatusBadGateway, "Store Error", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
