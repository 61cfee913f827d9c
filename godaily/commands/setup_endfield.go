package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/database/models"
	"github.com/ellavondegurechaff/godaily/godaily/endfield"
	"github.com/ellavondegurechaff/godaily/godaily/logger"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var SetupEndfield = discord.SlashCommandCreate{
	Name:        "setup-endfield",
	Description: "Link your SKPORT account for Arknights: Endfield daily claims",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "token",
			Description: "Your SKPORT account token (ACCOUNT cookie from skport.gryphline.com)",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "game-id",
			Description: "Your numeric Endfield UID",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "server",
			Description: "Your game server",
			Required:    false,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Asia", Value: "2"},
				{Name: "Americas/Europe", Value: "3"},
			},
		},
	},
}

func SetupEndfieldHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		token := strings.TrimSpace(data.String("token"))
		gameID := strings.TrimSpace(data.String("game-id"))
		server, ok := data.OptString("server")
		if !ok {
			server = "2"
		}

		if v := endfield.ValidateParams(token, gameID, server); !v.Valid {
			return utils.EH.CreateErrorEmbed(e, v.Message)
		}

		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.ClaimRequestTimeout)
		defer cancel()

		// Exchange once up front so a dead token fails here instead of at
		// tonight's scheduled run.
		creds, err := b.Orchestrator.Exchanger().Exchange(ctx, token)
		if err != nil {
			slog.Warn("SKPORT token exchange failed during setup",
				slog.String("type", "claim"),
				slog.String("discord_id", e.User().ID.String()),
				slog.String("token", logger.RedactToken(token)),
				slog.Any("error", err),
			)
			return utils.EH.UpdateErrorResponse(e, fmt.Sprintf("Could not verify that token with SKPORT: %v\n\nGrab a fresh `ACCOUNT` cookie from skport.gryphline.com and try again.", err))
		}

		account := &models.EndfieldAccount{
			AccountToken: token,
			GameID:       gameID,
			Server:       server,
			AccountName:  creds.UserID,
		}
		if err := b.UserRepository.UpsertEndfield(ctx, e.User().ID.String(), e.User().Username, account); err != nil {
			slog.Error("Failed to save Endfield account",
				slog.String("type", "db"),
				slog.String("discord_id", e.User().ID.String()),
				slog.Any("error", err),
			)
			return utils.EH.UpdateErrorResponse(e, "Failed to save your account. Please try again later.")
		}

		// Drop any credential cached for a previous token on this account.
		b.Orchestrator.ClearCachedCredential(gameID, server)

		return utils.EH.UpdateSuccessResponse(e, fmt.Sprintf(
			"Linked Endfield UID **%s** on **%s**. Daily attendance will be claimed automatically - run `/claim platform:endfield` to claim today's right now.",
			gameID, endfield.ServerNames[server],
		))
	}
}
