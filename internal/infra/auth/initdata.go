// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"telepass/config"
	"telepass/internal/domain/service"
	"telepass/internal/errors"
)

// defaultMaxPayloadAge bounds how old a launch payload may be. Telegram signs
// auth_date at launch; anything older is assumed replayed.
const defaultMaxPayloadAge = 5 * time.Minute

// hmacKeySeed is the fixed key Telegram specifies for deriving the
// per-bot signing key from the bot token.
const hmacKeySeed = "WebAppData"

// initDataValidator is a concrete implementation of the InitDataValidator
// interface for Telegram mini-app launch payloads.
type initDataValidator struct {
	// derivedKey is HMAC-SHA256(key="WebAppData", message=botToken),
	// precomputed once since the bot token never changes at runtime.
	derivedKey []byte
	maxAge     time.Duration
}

// NewInitDataValidator is the constructor for initDataValidator.
func NewInitDataValidator(cfg *config.Config) (service.InitDataValidator, error) {
	if cfg.SecretKey.Bot == "" {
		return nil, errors.New("bot token must be provided")
	}

	mac := hmac.New(sha256.New, []byte(hmacKeySeed))
	mac.Write([]byte(cfg.SecretKey.Bot))

	return &initDataValidator{
		derivedKey: mac.Sum(nil),
		maxAge:     defaultMaxPayloadAge,
	}, nil
}

// Validate checks the payload signature and freshness and extracts the
// embedded Telegram user. The signature is verified before any field is
// trusted, including auth_date.
func (v *initDataValidator) Validate(initData string, now time.Time) (*service.ValidatedIdentity, error) {
	if initData == "" {
		return nil, service.ErrMalformedPayload
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, errors.Wrap(service.ErrMalformedPayload, err.Error())
	}

	providedHash := values.Get("hash")
	if providedHash == "" {
		return nil, service.ErrMissingHash
	}

	fields := make(map[string]string, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		fields[key] = values.Get(key)
	}

	if !v.signatureMatches(fields, providedHash) {
		return nil, service.ErrInvalidSignature
	}

	authDateRaw, ok := fields["auth_date"]
	if !ok {
		return nil, service.ErrMissingTimestamp
	}
	authUnix, err := strconv.ParseInt(authDateRaw, 10, 64)
	if err != nil {
		return nil, errors.Wrap(service.ErrMissingTimestamp, err.Error())
	}
	authDate := time.Unix(authUnix, 0)

	// Payloads with auth_date in the future pass the freshness check;
	// clock skew between Telegram and this host is not the user's fault.
	if now.Sub(authDate) > v.maxAge {
		return nil, service.ErrPayloadExpired
	}

	userRaw, ok := fields["user"]
	if !ok {
		return nil, service.ErrMissingUser
	}
	var user service.TelegramUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return nil, errors.Wrap(service.ErrMalformedUser, err.Error())
	}
	if user.ID == 0 {
		return nil, service.ErrMalformedUser
	}

	return &service.ValidatedIdentity{
		User:     user,
		AuthDate: authDate,
		Fields:   fields,
	}, nil
}

// signatureMatches recomputes the payload signature and compares it with the
// provided hash in constant time.
func (v *initDataValidator) signatureMatches(fields map[string]string, providedHash string) bool {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}
	checkString := strings.Join(pairs, "\n")

	mac := hmac.New(sha256.New, v.derivedKey)
	mac.Write([]byte(checkString))
	calculated := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(calculated), []byte(strings.ToLower(providedHash)))
}
