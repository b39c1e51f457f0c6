package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"telepass/config"
	"telepass/internal/domain/service"
	"telepass/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "7342037359:AAFTelepassTestBotTokenForUnitTests"

// signInitData builds a signed payload the way Telegram does, independently
// of the implementation under test.
func signInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}

	keyMAC := hmac.New(sha256.New, []byte("WebAppData"))
	keyMAC.Write([]byte(botToken))

	sigMAC := hmac.New(sha256.New, keyMAC.Sum(nil))
	sigMAC.Write([]byte(strings.Join(pairs, "\n")))

	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	values.Set("hash", hex.EncodeToString(sigMAC.Sum(nil)))

	return values.Encode()
}

func newTestValidator(t *testing.T) service.InitDataValidator {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Bot = testBotToken

	validator, err := NewInitDataValidator(cfg)
	require.NoError(t, err)

	return validator
}

func testPayloadFields(authDate time.Time) map[string]string {
	return map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":99281932,"first_name":"Andrew","last_name":"Rogue","username":"rogue","language_code":"en","is_premium":true}`,
	}
}

func TestInitDataValidator_ValidPayload(t *testing.T) {
	validator := newTestValidator(t)

	now := time.Unix(1_700_000_000, 0)
	authDate := now.Add(-time.Minute)
	initData := signInitData(t, testBotToken, testPayloadFields(authDate))

	identity, err := validator.Validate(initData, now)
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, int64(99281932), identity.User.ID)
	assert.Equal(t, "Andrew", identity.User.FirstName)
	assert.Equal(t, "Rogue", identity.User.LastName)
	assert.Equal(t, "rogue", identity.User.Username)
	assert.Equal(t, "en", identity.User.LanguageCode)
	assert.True(t, identity.User.IsPremium)
	assert.True(t, identity.AuthDate.Equal(authDate))

	// hash must not leak into the extracted fields
	assert.NotContains(t, identity.Fields, "hash")
	assert.Equal(t, "AAHdF6IQAAAAAN0XohDhrOrc", identity.Fields["query_id"])
}

func TestInitDataValidator_UppercaseHashAccepted(t *testing.T) {
	validator := newTestValidator(t)

	now := time.Unix(1_700_000_000, 0)
	initData := signInitData(t, testBotToken, testPayloadFields(now.Add(-time.Minute)))

	values, err := url.ParseQuery(initData)
	require.NoError(t, err)
	values.Set("hash", strings.ToUpper(values.Get("hash")))

	_, err = validator.Validate(values.Encode(), now)
	assert.NoError(t, err)
}

func TestInitDataValidator_TamperedField(t *testing.T) {
	validator := newTestValidator(t)

	now := time.Unix(1_700_000_000, 0)
	initData := signInitData(t, testBotToken, testPayloadFields(now.Add(-time.Minute)))

	values, err := url.ParseQuery(initData)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(url.Values)
	}{
		{name: "user replaced", mutate: func(v url.Values) {
			v.Set("user", `{"id":1,"first_name":"Mallory"}`)
		}},
		{name: "auth_date shifted", mutate: func(v url.Values) {
			v.Set("auth_date", strconv.FormatInt(now.Unix(), 10))
		}},
		{name: "field added", mutate: func(v url.Values) {
			v.Set("premium_override", "true")
		}},
		{name: "field removed", mutate: func(v url.Values) {
			v.Del("query_id")
		}},
		{name: "hash replaced", mutate: func(v url.Values) {
			v.Set("hash", strings.Repeat("ab", 32))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := url.Values{}
			for key := range values {
				mutated.Set(key, values.Get(key))
			}
			tt.mutate(mutated)

			identity, err := validator.Validate(mutated.Encode(), now)
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, service.ErrInvalidSignature)
		})
	}
}

func TestInitDataValidator_SignedWithDifferentBotToken(t *testing.T) {
	validator := newTestValidator(t)

	now := time.Unix(1_700_000_000, 0)
	initData := signInitData(t, "1234:other_bot_token", testPayloadFields(now.Add(-time.Minute)))

	_, err := validator.Validate(initData, now)
	assert.ErrorIs(t, err, service.ErrInvalidSignature)
}

func TestInitDataValidator_FreshnessWindow(t *testing.T) {
	validator := newTestValidator(t)
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name     string
		authDate time.Time
		wantErr  error
	}{
		{name: "exactly at window", authDate: now.Add(-300 * time.Second), wantErr: nil},
		{name: "one second past window", authDate: now.Add(-301 * time.Second), wantErr: service.ErrPayloadExpired},
		{name: "far in the past", authDate: now.Add(-24 * time.Hour), wantErr: service.ErrPayloadExpired},
		{name: "future auth_date", authDate: now.Add(time.Minute), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initData := signInitData(t, testBotToken, testPayloadFields(tt.authDate))

			_, err := validator.Validate(initData, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestInitDataValidator_MissingAndMalformedFields(t *testing.T) {
	validator := newTestValidator(t)
	now := time.Unix(1_700_000_000, 0)
	authDate := now.Add(-time.Minute)

	tests := []struct {
		name    string
		build   func() string
		wantErr error
	}{
		{
			name:    "empty payload",
			build:   func() string { return "" },
			wantErr: service.ErrMalformedPayload,
		},
		{
			name:    "not a query string",
			build:   func() string { return "%zz%" },
			wantErr: service.ErrMalformedPayload,
		},
		{
			name: "missing hash",
			build: func() string {
				values := url.Values{}
				for key, value := range testPayloadFields(authDate) {
					values.Set(key, value)
				}
				return values.Encode()
			},
			wantErr: service.ErrMissingHash,
		},
		{
			name: "missing auth_date",
			build: func() string {
				fields := testPayloadFields(authDate)
				delete(fields, "auth_date")
				return signInitData(t, testBotToken, fields)
			},
			wantErr: service.ErrMissingTimestamp,
		},
		{
			name: "non-numeric auth_date",
			build: func() string {
				fields := testPayloadFields(authDate)
				fields["auth_date"] = "yesterday"
				return signInitData(t, testBotToken, fields)
			},
			wantErr: service.ErrMissingTimestamp,
		},
		{
			name: "missing user",
			build: func() string {
				fields := testPayloadFields(authDate)
				delete(fields, "user")
				return signInitData(t, testBotToken, fields)
			},
			wantErr: service.ErrMissingUser,
		},
		{
			name: "user is not JSON",
			build: func() string {
				fields := testPayloadFields(authDate)
				fields["user"] = "not-json"
				return signInitData(t, testBotToken, fields)
			},
			wantErr: service.ErrMalformedUser,
		},
		{
			name: "user without id",
			build: func() string {
				fields := testPayloadFields(authDate)
				fields["user"] = `{"first_name":"Nobody"}`
				return signInitData(t, testBotToken, fields)
			},
			wantErr: service.ErrMalformedUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := validator.Validate(tt.build(), now)
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInitDataValidator_SignatureCheckedBeforeFreshness(t *testing.T) {
	validator := newTestValidator(t)
	now := time.Unix(1_700_000_000, 0)

	// Stale payload signed with the wrong token must report a signature
	// failure, not expiry, so nothing unverified is ever interpreted.
	initData := signInitData(t, "1234:other_bot_token", testPayloadFields(now.Add(-time.Hour)))

	_, err := validator.Validate(initData, now)
	assert.ErrorIs(t, err, service.ErrInvalidSignature)
}

func TestNewInitDataValidator_RequiresBotToken(t *testing.T) {
	cfg := &config.Config{}

	validator, err := NewInitDataValidator(cfg)
	assert.Nil(t, validator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token must be provided")
}

// Guards against accidental divergence between the sentinel wrapping and
// errors.Is matching through the pkg/errors chain.
func TestInitDataValidator_WrappedErrorsMatchSentinels(t *testing.T) {
	validator := newTestValidator(t)
	now := time.Unix(1_700_000_000, 0)

	_, err := validator.Validate("%zz%", now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrMalformedPayload))
}
