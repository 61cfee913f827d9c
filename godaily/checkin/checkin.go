// Package checkin orchestrates daily reward claims across both platforms:
// per-account claim execution, result persistence, the daily batch scheduler,
// and DM reporting.
package checkin

import (
	"context"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/credcache"
	"github.com/ellavondegurechaff/godaily/godaily/database/models"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/ellavondegurechaff/godaily/godaily/endfield"
	"github.com/ellavondegurechaff/godaily/godaily/hoyolab"
)

// AccountResult carries the per-platform outcomes of one account's claim run.
// A nil slice / nil pointer means the platform is not configured.
type AccountResult struct {
	Hoyolab         []hoyolab.ClaimResult
	HoyolabSummary  string
	Endfield        *endfield.ClaimResult
	EndfieldSummary string
}

// HasAny reports whether at least one platform was attempted.
func (r AccountResult) HasAny() bool {
	return r.Hoyolab != nil || r.Endfield != nil
}

// Orchestrator runs claims for one account at a time. It is the shared entry
// point for the scheduler and the manual /claim path and is safe for
// concurrent use; duplicate claims for the same account resolve upstream as
// already-claimed.
type Orchestrator struct {
	repo         repositories.UserRepository
	cache        *credcache.Cache
	exchanger    *endfield.Exchanger
	hoyolabOpts  []hoyolab.Option
	endfieldOpts []endfield.ClientOption
}

type OrchestratorOption func(*Orchestrator)

// WithHoyolabOptions forwards client options, used by tests to redirect
// endpoints.
func WithHoyolabOptions(opts ...hoyolab.Option) OrchestratorOption {
	return func(o *Orchestrator) { o.hoyolabOpts = opts }
}

func WithEndfieldOptions(opts ...endfield.ClientOption) OrchestratorOption {
	return func(o *Orchestrator) { o.endfieldOpts = opts }
}

func NewOrchestrator(repo repositories.UserRepository, cache *credcache.Cache, exchanger *endfield.Exchanger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		repo:      repo,
		cache:     cache,
		exchanger: exchanger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Exchanger exposes the OAuth exchanger for setup-time token verification.
func (o *Orchestrator) Exchanger() *endfield.Exchanger {
	return o.exchanger
}

// ClaimForAccount attempts every configured platform for one user. The two
// platforms are independent; one failing never skips the other. Each attempt
// ends with a stored result summary so the user is never left with a silent
// failure state.
func (o *Orchestrator) ClaimForAccount(ctx context.Context, user *models.User) AccountResult {
	var result AccountResult

	if user.HasHoyolab() {
		start := time.Now()
		client := hoyolab.NewClient(user.Hoyolab.Token, o.hoyolabOpts...)
		result.Hoyolab = client.ClaimAll(ctx, user.Hoyolab.Games)
		result.HoyolabSummary = FormatHoyolabResults(result.Hoyolab)

		o.persist(ctx, user.DiscordID, "hoyolab", result.HoyolabSummary, func(update repositories.ClaimUpdate) error {
			return o.repo.UpdateHoyolabClaim(ctx, user.DiscordID, update)
		})

		slog.Info("Hoyolab claim processed",
			slog.String("type", "claim"),
			slog.String("discord_id", user.DiscordID),
			slog.Int("games", len(result.Hoyolab)),
			slog.Duration("took", time.Since(start)))
	}

	if user.HasEndfield() {
		start := time.Now()
		client := endfield.NewClient(
			user.Endfield.AccountToken,
			user.Endfield.GameID,
			user.Endfield.Server,
			o.cache,
			o.exchanger,
			o.endfieldOpts...,
		)
		claim := client.Claim(ctx)
		result.Endfield = &claim
		result.EndfieldSummary = FormatEndfieldResult(claim)

		if claim.AuthFailure {
			// a rejected cred is useless; drop it so the next attempt
			// re-exchanges instead of re-signing with a dead credential
			o.cache.Invalidate(client.CacheKey())
		}

		o.persist(ctx, user.DiscordID, "endfield", result.EndfieldSummary, func(update repositories.ClaimUpdate) error {
			return o.repo.UpdateEndfieldClaim(ctx, user.DiscordID, update)
		})

		slog.Info("Endfield claim processed",
			slog.String("type", "claim"),
			slog.String("discord_id", user.DiscordID),
			slog.Bool("success", claim.Success),
			slog.Duration("took", time.Since(start)))
	}

	return result
}

// persist stores the claim outcome; storage failures are logged and do not
// abort the account's run.
func (o *Orchestrator) persist(ctx context.Context, discordID, platform, summary string, update func(repositories.ClaimUpdate) error) {
	err := update(repositories.ClaimUpdate{
		Timestamp:     time.Now(),
		ResultSummary: summary,
	})
	if err != nil {
		slog.Error("Failed to persist claim result",
			slog.String("type", "db"),
			slog.String("discord_id", discordID),
			slog.String("platform", platform),
			slog.Any("error", err))
	}
}

// ClearCachedCredential drops the cached signing credential for an Endfield
// account, forcing a full exchange on the next claim. Used after re-setup.
func (o *Orchestrator) ClearCachedCredential(gameID, server string) {
	if server == "" {
		server = "2"
	}
	o.cache.Invalidate(credcache.Key{AccountID: gameID, Server: server})
}
