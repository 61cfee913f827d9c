package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var Settings = discord.SlashCommandCreate{
	Name:        "settings",
	Description: "Change your claim settings",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "notify",
			Description: "Toggle DM notifications for scheduled claims",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionBool{
					Name:        "enabled",
					Description: "Send me a DM with each night's claim results",
					Required:    true,
				},
			},
		},
	},
}

func SettingsHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		if *data.SubCommandName != "notify" {
			return utils.EH.CreateErrorEmbed(e, "Unknown setting.")
		}
		enabled := data.Bool("enabled")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.UserRepository.SetNotifyOnClaim(ctx, e.User().ID.String(), enabled); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return utils.EH.CreateErrorEmbed(e, "You haven't linked any account yet. Run `/setup-hoyolab` or `/setup-endfield` first.")
			}
			slog.Error("Failed to update notify setting",
				slog.String("type", "db"),
				slog.String("discord_id", e.User().ID.String()),
				slog.Any("error", err),
			)
			return utils.EH.CreateErrorEmbed(e, "Failed to save your settings. Please try again later.")
		}

		if enabled {
			return utils.EH.CreateSuccessEmbed(e, "You'll get a DM with each scheduled claim's results. Make sure DMs from server members are open.")
		}
		return utils.EH.CreateSuccessEmbed(e, "Scheduled claims will run silently. Use `/status` to check results.")
	}
}
