package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/hdesk/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/hdesk/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// getIdentity extracts the authenticated identity from the request context,
// writing a 401 response if it is missing.
func getIdentity(w http.ResponseWriter, r *http.Request) (ports.Identity, bool) {
	identity, ok := mw.GetIdentity(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return ports.Identity{}, false
	}
	return identity, true
}

// parseIDParam extracts and validates a positive int64 URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v := validation.NewValidator()
		v.Custom(name, false, "Invalid "+name)
		return 0, v.Errors()
	}
	return id, nil
}
