package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "telepass/internal/delivery/context"
	domainerrors "telepass/internal/domain/errors"
	"telepass/internal/domain/service"
	"telepass/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	validator     service.InitDataValidator
	sessionTokens service.SessionTokenService
	identity      usecase.IdentityUsecase
	logger        *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Validator     service.InitDataValidator
	SessionTokens service.SessionTokenService
	Identity      usecase.IdentityUsecase
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		validator:     params.Validator,
		sessionTokens: params.SessionTokens,
		identity:      params.Identity,
		logger:        params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifyLaunch validates a signed launch payload, resolves the account and
// issues a session token. Every validation failure collapses into the same
// generic authentication error towards the client; the precise reason is only
// logged server-side.
func (srv *authService) VerifyLaunch(ctx context.Context, input *usecase.VerifyLaunchInput) (*usecase.VerifyLaunchOutput, error) {
	now := time.Now()

	identity, err := srv.validator.Validate(input.InitData, now)
	if err != nil {
		srv.log(ctx).Warn("Launch payload rejected", slog.String("ip", input.Meta.IP), slog.Any("reason", err))

		return nil, errors.Wrap(domainerrors.ErrAuthenticationFailed, "launch payload rejected")
	}

	resolved, err := srv.identity.ResolveOrCreate(ctx, identity, input.Meta)
	if err != nil {
		srv.log(ctx).Error("Failed to resolve user identity", slog.Int64("externalID", identity.User.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to resolve user identity")
	}

	token, expiresAt, err := srv.sessionTokens.Issue(service.SessionUser{
		ExternalID: resolved.User.ExternalID,
		UserID:     resolved.User.ID,
	}, now)
	if err != nil {
		srv.log(ctx).Error("Failed to issue session token", slog.String("userID", resolved.User.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to issue session token")
	}

	srv.log(ctx).Debug("Launch verified", slog.String("userID", resolved.User.ID), slog.Bool("isNewUser", resolved.IsNewUser))

	return &usecase.VerifyLaunchOutput{
		SessionToken: token,
		ExpiresAt:    expiresAt,
		User:         resolved.User,
		IsNewUser:    resolved.IsNewUser,
	}, nil
}

// RenewSession exchanges a valid session token for a fresh one. Expired
// sessions are not renewable; the client must re-authenticate with a new
// launch payload.
func (srv *authService) RenewSession(ctx context.Context, token string) (*usecase.RenewSessionOutput, error) {
	renewed, expiresAt, err := srv.sessionTokens.Renew(token, time.Now())
	if err != nil {
		srv.log(ctx).Debug("Session renewal rejected", slog.Any("reason", err))

		if errors.Is(err, service.ErrSessionExpired) {
			return nil, errors.Wrap(domainerrors.ErrSessionExpired, "session renewal rejected")
		}

		return nil, errors.Wrap(domainerrors.ErrSessionInvalid, "session renewal rejected")
	}

	return &usecase.RenewSessionOutput{
		SessionToken: renewed,
		ExpiresAt:    expiresAt,
	}, nil
}
