package impl

import (
	"io"
	"log/slog"

	"telepass/config"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Referral: &config.ReferralConfig{
			BaseURL: "https://t.me/telepass_bot/app",
		},
	}
}
