package auth

import (
	"time"

	"telepass/config"
	"telepass/internal/domain/service"
	"telepass/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the JWT claim set carried by session tokens.
type sessionClaims struct {
	TelegramID int64  `json:"tid"`
	UserID     string `json:"uid"`
	jwt.RegisteredClaims
}

// sessionTokenService is a concrete implementation of the SessionTokenService
// interface using HS256-signed JWTs.
type sessionTokenService struct {
	secret   []byte
	duration time.Duration
}

// NewSessionTokenService is the constructor for sessionTokenService.
func NewSessionTokenService(cfg *config.Config) (service.SessionTokenService, error) {
	if cfg.SecretKey.Session == "" {
		return nil, errors.New("session secret must be provided")
	}
	duration := cfg.Session.Duration
	if duration <= 0 {
		duration = time.Hour
	}
	return &sessionTokenService{
		secret:   []byte(cfg.SecretKey.Session),
		duration: duration,
	}, nil
}

// Issue creates a signed token for the user, valid from now for the
// configured duration.
func (s *sessionTokenService) Issue(user service.SessionUser, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.duration)
	claims := sessionClaims{
		TelegramID: user.ExternalID,
		UserID:     user.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign session token")
	}
	return signed, expiresAt, nil
}

// Verify checks the token signature and expiry and returns the embedded user.
func (s *sessionTokenService) Verify(tokenString string, now time.Time) (*service.SessionUser, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Restricting the method here keeps "alg":"none" and asymmetric
		// downgrades out before any claim is read.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !token.Valid {
		return nil, service.ErrSessionInvalid
	}
	if claims.TelegramID == 0 || claims.UserID == "" {
		return nil, service.ErrSessionMalformed
	}

	return &service.SessionUser{
		ExternalID: claims.TelegramID,
		UserID:     claims.UserID,
	}, nil
}

// Renew verifies the token and issues a fresh one for the same user. An
// expired token cannot be renewed; the client must re-authenticate.
func (s *sessionTokenService) Renew(tokenString string, now time.Time) (string, time.Time, error) {
	user, err := s.Verify(tokenString, now)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.Issue(*user, now)
}

// Duration reports the configured session lifetime.
func (s *sessionTokenService) Duration() time.Duration {
	return s.duration
}

// mapJWTError translates jwt parse errors into domain sentinels. jwt/v5
// verifies the signature before validating claims, so expiry is only ever
// reported for tokens whose signature checked out.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return service.ErrSessionExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return service.ErrSessionInvalid
	default:
		return errors.Wrap(service.ErrSessionMalformed, err.Error())
	}
}
