package transport

import (
	"errors"
	"net/http"

	"rug-market/internal/middleware"

	"github.com/google/uuid"
)

var errNoUser = errors.New("user not found in request context")

// userIDFromContext pulls the authenticated user's ID out of the request
// context populated by the auth middleware.
func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, errNoUser
	}
	return uuid.Parse(userIDStr)
}
