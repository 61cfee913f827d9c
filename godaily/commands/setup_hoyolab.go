package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/database/models"
	"github.com/ellavondegurechaff/godaily/godaily/hoyolab"
	"github.com/ellavondegurechaff/godaily/godaily/logger"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var SetupHoyolab = discord.SlashCommandCreate{
	Name:        "setup-hoyolab",
	Description: "Link your Hoyolab account for daily check-in claims",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "cookie",
			Description: "Your Hoyolab cookie string (must contain ltoken and account id)",
			Required:    true,
		},
	},
}

func SetupHoyolabHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		cookie := strings.TrimSpace(e.SlashCommandInteractionData().String("cookie"))

		check := hoyolab.ValidateCookie(cookie)
		if !check.HasLToken || !check.HasAccountID {
			return utils.EH.CreateErrorEmbed(e, "That doesn't look like a valid Hoyolab cookie. It must contain `ltoken`/`ltoken_v2` and `ltuid`/`account_id`. See `/help` for how to grab it.")
		}

		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.ClaimRequestTimeout)
		defer cancel()

		client := hoyolab.NewClient(cookie)
		ok, accountName := client.ValidateToken(ctx)
		if !ok {
			slog.Warn("Hoyolab cookie validation failed",
				slog.String("type", "claim"),
				slog.String("discord_id", e.User().ID.String()),
				slog.String("token", logger.RedactToken(cookie)),
			)
			return utils.EH.UpdateErrorResponse(e, "Hoyolab rejected that cookie. It may be expired - log in to hoyolab.com again and copy a fresh one.")
		}

		games := make(map[string]bool, len(hoyolab.GameKeys))
		for _, key := range hoyolab.GameKeys {
			games[key] = true
		}

		account := &models.HoyolabAccount{
			Token:       cookie,
			Games:       games,
			AccountName: accountName,
		}
		if err := b.UserRepository.UpsertHoyolab(ctx, e.User().ID.String(), e.User().Username, account); err != nil {
			slog.Error("Failed to save Hoyolab account",
				slog.String("type", "db"),
				slog.String("discord_id", e.User().ID.String()),
				slog.Any("error", err),
			)
			return utils.EH.UpdateErrorResponse(e, "Failed to save your account. Please try again later.")
		}

		desc := fmt.Sprintf("Linked Hoyolab account **%s**. All games are enabled for daily claims - pick which ones you actually play below.", accountName)
		if !check.HasCookieToken {
			desc += "\n\n⚠️ Your cookie is missing `cookie_token`, so `/redeem` won't work. Daily claims are unaffected."
		}

		options := make([]discord.StringSelectMenuOption, 0, len(hoyolab.GameKeys))
		for _, key := range hoyolab.GameKeys {
			game := hoyolab.Games[key]
			options = append(options, discord.StringSelectMenuOption{
				Label:   game.Name,
				Value:   key,
				Default: true,
			})
		}

		_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "✅ Hoyolab Linked",
				Description: desc,
				Color:       config.SuccessColor,
			}},
			Components: &[]discord.ContainerComponent{
				discord.NewActionRow(
					discord.NewStringSelectMenu("/setup-hoyolab/games", "Select games to claim", options...).
						WithMinValues(1).
						WithMaxValues(len(options)),
				),
			},
		})
		return err
	}
}

func HoyolabGamesHandler(b *godaily.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		data, ok := e.Data.(discord.StringSelectMenuInteractionData)
		if !ok {
			return utils.EH.CreateEphemeralError(e, "Invalid interaction data.")
		}

		selected := make(map[string]bool, len(hoyolab.GameKeys))
		for _, key := range hoyolab.GameKeys {
			selected[key] = false
		}
		names := make([]string, 0, len(data.Values))
		for _, value := range data.Values {
			if game, ok := hoyolab.Games[value]; ok {
				selected[value] = true
				names = append(names, game.Name)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.UserRepository.SetHoyolabGames(ctx, e.User().ID.String(), selected); err != nil {
			slog.Error("Failed to update game selection",
				slog.String("type", "db"),
				slog.String("discord_id", e.User().ID.String()),
				slog.Any("error", err),
			)
			return utils.EH.CreateEphemeralError(e, "Failed to save your game selection. Please try again.")
		}

		return e.UpdateMessage(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "✅ Games Updated",
				Description: fmt.Sprintf("Daily claims enabled for: **%s**", strings.Join(names, "**, **")),
				Color:       config.SuccessColor,
			}},
			Components: &[]discord.ContainerComponent{},
		})
	}
}
