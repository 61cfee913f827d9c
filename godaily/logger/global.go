package logger

import (
	"log/slog"
	"time"
)

// LogClaim logs a claim attempt outcome for one platform
func LogClaim(platform string, discordID string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "claim"),
		slog.String("platform", platform),
		slog.String("discord_id", discordID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Claim failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Claim processed", attrs...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}

// RedactToken shortens a secret for log output. Tokens are never logged in
// full; only enough of the tail survives to tell two tokens apart.
func RedactToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
