package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var Remove = discord.SlashCommandCreate{
	Name:        "remove",
	Description: "Unlink an account and delete its stored credentials",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "platform",
			Description: "Which platform to unlink",
			Required:    true,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Hoyolab", Value: "hoyolab"},
				{Name: "Endfield", Value: "endfield"},
				{Name: "Everything", Value: "all"},
			},
		},
	},
}

func RemoveHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		platform := e.SlashCommandInteractionData().String("platform")
		discordID := e.User().ID.String()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Clear the credential cache before the DB record goes away, so a
		// half-finished removal can't leave a claimable credential behind.
		if platform == "endfield" || platform == "all" {
			if user, err := b.UserRepository.GetByDiscordID(ctx, discordID); err == nil && user.HasEndfield() {
				b.Orchestrator.ClearCachedCredential(user.Endfield.GameID, user.Endfield.Server)
			}
		}

		if err := b.UserRepository.RemovePlatform(ctx, discordID, platform); err != nil {
			slog.Error("Failed to remove platform",
				slog.String("type", "db"),
				slog.String("discord_id", discordID),
				slog.String("platform", platform),
				slog.Any("error", err),
			)
			return utils.EH.CreateErrorEmbed(e, "Failed to remove your account data. Please try again later.")
		}

		var what string
		switch platform {
		case "hoyolab":
			what = "Hoyolab account"
		case "endfield":
			what = "Endfield account"
		default:
			what = "linked accounts"
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Your %s and stored credentials have been deleted. Scheduled claims will skip you until you set up again.", what))
	}
}
