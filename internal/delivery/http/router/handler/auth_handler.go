// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"telepass/config"
	"telepass/internal/delivery/http/middleware"
	"telepass/internal/delivery/http/response"
	"telepass/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		cfg:    cfg,
		logger: logger,
	}
}

type verifyLaunchRequest struct {
	InitData string `json:"initData" validate:"required"`
}

type verifyLaunchResponse struct {
	User         *userResponse `json:"user"`
	IsNewUser    bool          `json:"isNewUser"`
	SessionToken string        `json:"sessionToken"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

type renewSessionResponse struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Verify handles the mini-app launch authentication request.
func (h *AuthHandler) Verify(c echo.Context) error {
	var input verifyLaunchRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}
	if err := c.Validate(&input); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", "initData is required")
	}

	output, err := h.uc.VerifyLaunch(c.Request().Context(), &usecase.VerifyLaunchInput{
		InitData: input.InitData,
		Meta: usecase.RequestMeta{
			IP:        c.RealIP(),
			UserAgent: c.Request().UserAgent(),
		},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookie(c, output.SessionToken, output.ExpiresAt)

	return response.Success(c, http.StatusOK, verifyLaunchResponse{
		User:         toUserResponse(output.User),
		IsNewUser:    output.IsNewUser,
		SessionToken: output.SessionToken,
		ExpiresAt:    output.ExpiresAt,
	}, "Authentication successful")
}

// Renew handles the session renewal request.
func (h *AuthHandler) Renew(c echo.Context) error {
	token := middleware.ExtractSessionToken(c, h.cfg.Session.CookieName)
	if token == "" {
		return response.Unauthorized(c, "SESSION_INVALID", "Missing session token")
	}

	output, err := h.uc.RenewSession(c.Request().Context(), token)
	if err != nil {
		return errors.WithStack(err)
	}

	h.setSessionCookie(c, output.SessionToken, output.ExpiresAt)

	return response.Success(c, http.StatusOK, renewSessionResponse{
		SessionToken: output.SessionToken,
		ExpiresAt:    output.ExpiresAt,
	}, "Session renewed")
}

// setSessionCookie writes the session token as an HTTP-only cookie. SameSite
// is None when secure because the mini-app runs inside Telegram's webview,
// which is a cross-site context.
func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	sameSite := http.SameSiteLaxMode
	if h.cfg.Session.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.Session.CookieSecure,
		SameSite: sameSite,
	})
}
