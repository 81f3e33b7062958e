package service

import (
	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/deppfellow/shalom-ministry/internal/server"
)

// AuthService configures Clerk for the routes that require a session.
type AuthService struct {
	enabled bool
}

// NewAuthService hands the Clerk secret key to the SDK. Without a key,
// authentication is disabled and protected routes are open.
func NewAuthService(s *server.Server) *AuthService {
	if !s.Config.AuthEnabled() {
		s.Logger.Warn().Msg("no clerk secret key configured, invoice deletion is unauthenticated")
		return &AuthService{}
	}

	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{enabled: true}
}

// Enabled reports whether protected routes check a Clerk session.
func (a *AuthService) Enabled() bool {
	return a != nil && a.enabled
}
