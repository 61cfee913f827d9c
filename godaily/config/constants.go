package config

import "time"

// UI and display constants
const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	EmbedDefaultColor = 0x2B2D31
	BotThemeColor     = 0x5865F2
)

// Claim pipeline constants. Batch size and inter-batch delay bound outbound
// concurrency against the upstream APIs; these are tuning knobs but the
// defaults match known-acceptable upstream load.
const (
	ClaimBatchSize         = 5
	ClaimBatchDelay        = 2 * time.Second
	HoyolabInterGameDelay  = time.Second
	ClaimRequestTimeout    = 30 * time.Second
	AuxRequestTimeout      = 15 * time.Second
	CredentialCacheTTL     = 25 * time.Minute
	ManualClaimCooldown    = 5 * time.Minute
	ManualClaimLockTimeout = 2 * time.Minute
)

// Scheduler defaults (UTC+8, just after the daily reset)
const (
	DefaultScheduleHour   = 0
	DefaultScheduleMinute = 5
	DefaultTimezone       = "Asia/Singapore"
)
