package handler

import (
	"log/slog"
	"net/http"

	"telepass/internal/delivery/http/middleware"
	"telepass/internal/delivery/http/response"
	"telepass/internal/domain/service"
	"telepass/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ReferralHandler holds dependencies for referral handlers.
type ReferralHandler struct {
	uc     usecase.IdentityUsecase
	qr     service.QRCodeService
	logger *slog.Logger
}

// NewReferralHandler is the constructor for ReferralHandler, injected by Fx.
func NewReferralHandler(uc usecase.IdentityUsecase, qr service.QRCodeService, logger *slog.Logger) *ReferralHandler {
	return &ReferralHandler{
		uc:     uc,
		qr:     qr,
		logger: logger,
	}
}

type linkReferralRequest struct {
	ReferralCode string `json:"referralCode" validate:"required"`
}

type linkReferralResponse struct {
	ReferrerID   string `json:"referrerId"`
	ReferrerName string `json:"referrerName"`
}

type referralLinkResponse struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

// Link records the referral code that brought the current user in.
func (h *ReferralHandler) Link(c echo.Context) error {
	sessionUser, ok := middleware.SessionUser(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Invalid session")
	}

	var input linkReferralRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid referral input")
	}
	if err := c.Validate(&input); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", "referralCode is required")
	}

	output, err := h.uc.LinkReferral(c.Request().Context(), &usecase.LinkReferralInput{
		UserID:       sessionUser.UserID,
		ReferralCode: input.ReferralCode,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, linkReferralResponse{
		ReferrerID:   output.Referrer.ID,
		ReferrerName: output.Referrer.DisplayName,
	}, "Referral recorded")
}

// GetLink returns the current user's shareable referral link.
func (h *ReferralHandler) GetLink(c echo.Context) error {
	sessionUser, ok := middleware.SessionUser(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Invalid session")
	}

	output, err := h.uc.ReferralLink(c.Request().Context(), sessionUser.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, referralLinkResponse{
		Code: output.Code,
		URL:  output.URL,
	}, "Referral link retrieved")
}

// QRCode renders the current user's referral link as a PNG QR code.
func (h *ReferralHandler) QRCode(c echo.Context) error {
	sessionUser, ok := middleware.SessionUser(c)
	if !ok {
		return response.Unauthorized(c, "SESSION_INVALID", "Invalid session")
	}

	output, err := h.uc.ReferralLink(c.Request().Context(), sessionUser.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	png, err := h.qr.GenerateLinkQR(output.URL)
	if err != nil {
		return errors.Wrap(err, "failed to generate referral QR code")
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
