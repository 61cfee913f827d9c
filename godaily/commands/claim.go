package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/checkin"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/ellavondegurechaff/godaily/godaily/logger"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var Claim = discord.SlashCommandCreate{
	Name:        "claim",
	Description: "Claim your daily check-in rewards right now",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "platform",
			Description: "Claim only one platform (default: everything you've set up)",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Hoyolab", Value: "hoyolab"},
				{Name: "Endfield", Value: "endfield"},
			},
		},
	},
}

func ClaimHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		discordID := e.User().ID.String()
		platform, _ := e.SlashCommandInteractionData().OptString("platform")

		if ok, remaining := b.LockManager.CanClaim(discordID); !ok {
			return utils.EH.CreateErrorEmbed(e, fmt.Sprintf("You claimed recently - try again in %s.", utils.FormatDuration(remaining)))
		}
		if !b.LockManager.Lock(discordID) {
			return utils.EH.CreateErrorEmbed(e, "A claim is already running for your account. Hold on.")
		}
		defer b.LockManager.Release(discordID)

		ctx, cancel := context.WithTimeout(context.Background(), 2*config.ClaimRequestTimeout)
		defer cancel()

		user, err := b.UserRepository.GetByDiscordID(ctx, discordID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return utils.EH.CreateErrorEmbed(e, "You haven't linked any account yet. Run `/setup-hoyolab` or `/setup-endfield` first.")
			}
			slog.Error("Failed to load user for manual claim",
				slog.String("type", "db"),
				slog.String("discord_id", discordID),
				slog.Any("error", err),
			)
			return utils.EH.CreateErrorEmbed(e, "Failed to load your account data. Please try again later.")
		}

		switch platform {
		case "hoyolab":
			if !user.HasHoyolab() {
				return utils.EH.CreateErrorEmbed(e, "No Hoyolab account linked. Run `/setup-hoyolab` first.")
			}
			user.Endfield = nil
		case "endfield":
			if !user.HasEndfield() {
				return utils.EH.CreateErrorEmbed(e, "No Endfield account linked. Run `/setup-endfield` first.")
			}
			user.Hoyolab = nil
		default:
			if !user.HasHoyolab() && !user.HasEndfield() {
				return utils.EH.CreateErrorEmbed(e, "You haven't linked any account yet. Run `/setup-hoyolab` or `/setup-endfield` first.")
			}
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		logPlatform := platform
		if logPlatform == "" {
			logPlatform = "all"
		}
		start := time.Now()
		result := b.Orchestrator.ClaimForAccount(ctx, user)
		logger.LogClaim(logPlatform, discordID, time.Since(start), nil)

		b.LockManager.SetCooldown(discordID)

		embed := checkin.SummaryEmbed(checkin.SummarySections(result))
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{embed},
		})
		return err
	}
}
