package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teachmatch/accounts-api/internal/domain"
)

// DetailEnvelope is the generic response wrapper.
type DetailEnvelope struct {
	Detail string `json:"detail"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	User    *domain.User `json:"user,omitempty"`
	Access  string       `json:"access,omitempty"`
	Refresh string       `json:"refresh,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session,omitempty"`
	User    *domain.User    `json:"user,omitempty"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, DetailEnvelope{Detail: detail})
}

// httpError maps domain sentinel errors to HTTP responses. The two token
// failure classes get their fixed public messages; everything else collapses
// into generic wording so infrastructure detail never leaks.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidLink):
		writeDetail(w, http.StatusBadRequest, "Invalid link")
	case errors.Is(err, domain.ErrInvalidToken):
		writeDetail(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, domain.ErrBadRequest):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrConflict):
		writeDetail(w, http.StatusConflict, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
