package middleware

import (
	"strings"
	"time"

	"telepass/config"
	"telepass/internal/delivery/http/response"
	"telepass/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// KeySessionUser is the echo.Context key holding the verified session identity.
const KeySessionUser = "sessionUser"

// AuthMiddleware provides middleware for session token authentication.
type AuthMiddleware struct {
	sessionSvc service.SessionTokenService
	cookieName string
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(sessionSvc service.SessionTokenService, cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		sessionSvc: sessionSvc,
		cookieName: cfg.Session.CookieName,
	}
}

// Authenticate validates the session token carried by the request, either in
// the session cookie or as a Bearer token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ExtractSessionToken(c, m.cookieName)
		if token == "" {
			return response.Unauthorized(c, "SESSION_INVALID", "Missing session token")
		}

		user, err := m.sessionSvc.Verify(token, time.Now())
		if err != nil {
			if errors.Is(err, service.ErrSessionExpired) {
				return response.Unauthorized(c, "SESSION_EXPIRED", "Session has expired")
			}

			return response.Unauthorized(c, "SESSION_INVALID", "Invalid session")
		}

		// Set the verified identity on the context for handlers to use
		c.Set(KeySessionUser, user)

		return next(c)
	}
}

// ExtractSessionToken reads the session token from the cookie, falling back
// to the Authorization header for clients that cannot carry cookies.
func ExtractSessionToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return token
	}

	return ""
}

// SessionUser extracts the verified identity set by Authenticate.
func SessionUser(c echo.Context) (*service.SessionUser, bool) {
	user, ok := c.Get(KeySessionUser).(*service.SessionUser)

	return user, ok
}
