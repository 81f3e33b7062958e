package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/shalom-ministry/internal/errs"
	"github.com/deppfellow/shalom-ministry/internal/server"
)

type AuthMiddleware struct {
	server *server.Server
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth checks the Clerk session token in the Authorization header.
//
// On success the user id and organization role are stored on the Echo
// context. Missing or invalid tokens get a 401 in the errs.HTTPError shape.
// When no Clerk secret key is configured the route is left open.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	if !auth.server.Config.AuthEnabled() {
		return next
	}

	unauthorized := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
		w.WriteHeader(http.StatusUnauthorized)

		if err := json.NewEncoder(w).Encode(errs.NewUnauthorizedError("Unauthorized", false)); err != nil {
			auth.server.Logger.Error().Err(err).Msg("failed to write unauthorized response")
		}
	})

	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(clerkhttp.AuthorizationFailureHandler(unauthorized)),
	)(func(c echo.Context) error {
		claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
		if !ok {
			GetLogger(c).Warn().Msg("could not get session claims from context")
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.ActiveOrganizationRole)

		GetLogger(c).Debug().
			Str("user_id", claims.Subject).
			Msg("user authenticated")

		return next(c)
	})
}
