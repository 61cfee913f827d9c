package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/ellavondegurechaff/godaily/godaily/hoyolab"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
	"github.com/sahilm/fuzzy"
)

var Redeem = discord.SlashCommandCreate{
	Name:        "redeem",
	Description: "Redeem a gift code on your Hoyolab account",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "game",
			Description:  "Which game the code is for",
			Required:     true,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "code",
			Description: "The gift code to redeem",
			Required:    true,
		},
	},
}

// gameSearchSource adapts the games table for fuzzy matching over both the
// full name and the short name.
type gameSearchSource []string

func (s gameSearchSource) String(i int) string {
	game := hoyolab.Games[s[i]]
	return game.Name + " " + game.ShortName
}

func (s gameSearchSource) Len() int { return len(s) }

func RedeemAutocompleteHandler(e *handler.AutocompleteEvent) error {
	focused := e.Data.Focused()
	if focused.Name != "game" {
		return e.AutocompleteResult(nil)
	}

	query := ""
	if focused.Value != nil {
		var s string
		if err := json.Unmarshal(focused.Value, &s); err == nil {
			query = strings.TrimSpace(s)
		}
	}

	keys := hoyolab.GameKeys
	if query != "" {
		matches := fuzzy.FindFrom(query, gameSearchSource(hoyolab.GameKeys))
		ranked := make([]string, 0, len(matches))
		for _, m := range matches {
			ranked = append(ranked, hoyolab.GameKeys[m.Index])
		}
		if len(ranked) > 0 {
			keys = ranked
		}
	}

	choices := make([]discord.AutocompleteChoice, 0, len(keys))
	for _, key := range keys {
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  hoyolab.Games[key].Name,
			Value: key,
		})
	}
	return e.AutocompleteResult(choices)
}

func RedeemHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		gameKey := data.String("game")
		code := strings.ToUpper(strings.TrimSpace(data.String("code")))

		game, ok := hoyolab.Games[gameKey]
		if !ok {
			return utils.EH.CreateErrorEmbed(e, "Unknown game. Pick one from the autocomplete list.")
		}
		if code == "" {
			return utils.EH.CreateErrorEmbed(e, "That code is empty.")
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.ClaimRequestTimeout)
		defer cancel()

		user, err := b.UserRepository.GetByDiscordID(ctx, e.User().ID.String())
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return utils.EH.CreateErrorEmbed(e, "You haven't linked a Hoyolab account yet. Run `/setup-hoyolab` first.")
			}
			return utils.EH.CreateErrorEmbed(e, "Failed to load your account data. Please try again later.")
		}
		if !user.HasHoyolab() {
			return utils.EH.CreateErrorEmbed(e, "You haven't linked a Hoyolab account yet. Run `/setup-hoyolab` first.")
		}

		check := hoyolab.ValidateCookie(user.Hoyolab.Token)
		if !check.HasCookieToken {
			return utils.EH.CreateErrorEmbed(e, "Your stored cookie has no `cookie_token`, which redemption requires. Re-run `/setup-hoyolab` with a full cookie.")
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		client := hoyolab.NewClient(user.Hoyolab.Token)
		accounts, err := client.GameAccounts(ctx, gameKey)
		if err != nil || len(accounts) == 0 {
			slog.Warn("No game accounts found for redemption",
				slog.String("type", "claim"),
				slog.String("discord_id", e.User().ID.String()),
				slog.String("game", gameKey),
				slog.Any("error", err),
			)
			return utils.EH.UpdateErrorResponse(e, fmt.Sprintf("Couldn't find a %s account bound to your Hoyolab profile.", game.Name))
		}

		var lines []string
		for _, account := range accounts {
			result := client.RedeemCode(ctx, gameKey, account, code)
			status := "✅"
			if !result.Success {
				status = "❌"
			}
			lines = append(lines, fmt.Sprintf("%s **%s** (Lv.%d, %s): %s", status, account.Nickname, account.Level, account.RegionName, result.Message))
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       fmt.Sprintf("🎁 Code `%s` - %s", code, game.Name),
				Description: strings.Join(lines, "\n"),
				Color:       config.InfoColor,
			}},
		})
		return err
	}
}
