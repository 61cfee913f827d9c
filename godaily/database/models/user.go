package models

import "time"

// User is one Discord user's stored configuration. Platform sub-documents are
// optional; a user may have either platform, both, or (right after /remove)
// neither.
type User struct {
	DiscordID string           `bson:"discord_id"`
	Username  string           `bson:"username"`
	Hoyolab   *HoyolabAccount  `bson:"hoyolab,omitempty"`
	Endfield  *EndfieldAccount `bson:"endfield,omitempty"`
	Settings  Settings         `bson:"settings"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

// HoyolabAccount holds the long-lived cookie and per-game enablement for the
// Hoyolab platform. LastClaim/LastClaimResult are display state only; the
// remote service is authoritative on whether today's reward is claimed.
type HoyolabAccount struct {
	Token           string          `bson:"token"`
	Games           map[string]bool `bson:"games"`
	AccountName     string          `bson:"account_name"`
	LastClaim       time.Time       `bson:"last_claim,omitempty"`
	LastClaimResult string          `bson:"last_claim_result,omitempty"`
}

// EndfieldAccount holds the long-lived Gryphline account token plus the game
// identity used to build the sk-game-role header.
type EndfieldAccount struct {
	AccountToken    string    `bson:"account_token"`
	GameID          string    `bson:"game_id"`
	Server          string    `bson:"server"`
	AccountName     string    `bson:"account_name"`
	LastClaim       time.Time `bson:"last_claim,omitempty"`
	LastClaimResult string    `bson:"last_claim_result,omitempty"`
}

type Settings struct {
	NotifyOnClaim bool `bson:"notify_on_claim"`
}

// HasHoyolab reports whether the user has a usable Hoyolab credential.
func (u *User) HasHoyolab() bool {
	return u.Hoyolab != nil && u.Hoyolab.Token != ""
}

// HasEndfield reports whether the user has a usable Endfield credential.
func (u *User) HasEndfield() bool {
	return u.Endfield != nil && u.Endfield.AccountToken != ""
}
