package handler

import (
	"log/slog"
	"net/http"
	"time"

	"telepass/internal/delivery/http/middleware"
	"telepass/internal/delivery/http/response"
	"telepass/internal/domain/entity"
	"telepass/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	uc     usecase.IdentityUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.IdentityUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: logger,
	}
}

// userResponse is the public shape of a user account. The Telegram ID and
// referral ledger are included; device audit data is not.
type userResponse struct {
	UID           string     `json:"uid"`
	TelegramID    int64      `json:"telegramId"`
	DisplayName   string     `json:"displayName"`
	Username      string     `json:"username,omitempty"`
	PhotoURL      string     `json:"photoUrl,omitempty"`
	LanguageCode  string     `json:"languageCode,omitempty"`
	ReferralCode  string     `json:"referralCode"`
	ReferralCount int        `json:"referralCount"`
	ReferredBy    *string    `json:"referredBy,omitempty"`
	ReferredAt    *time.Time `json:"referredAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toUserResponse(user *entity.User) *userResponse {
	if user == nil {
		return nil
	}

	return &userResponse{
		UID:           user.ID,
		TelegramID:    user.ExternalID,
		DisplayName:   user.DisplayName,
		Username:      user.Username,
		PhotoURL:      user.PhotoURL,
		LanguageCode:  user.LanguageCode,
		ReferralCode:  user.ReferralCode,
		ReferralCount: user.ReferralCount,
		ReferredBy:    user.ReferredBy,
		ReferredAt:    user.ReferredAt,
		CreatedAt:     user.CreatedAt,
	}
}

// Me handles the request to get the current user's account.
func (h *UserHandler) Me(c echo.Context) error {
	sessionUser, ok := middleware.SessionUser(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Invalid session")
	}

	user, err := h.uc.GetUser(c.Request().Context(), sessionUser.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "Profile retrieved successfully")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
