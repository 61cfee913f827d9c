package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/ellavondegurechaff/godaily/godaily/endfield"
	"github.com/ellavondegurechaff/godaily/godaily/hoyolab"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var Status = discord.SlashCommandCreate{
	Name:        "status",
	Description: "Show your linked accounts and last claim results",
}

func StatusHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := b.UserRepository.GetByDiscordID(ctx, e.User().ID.String())
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return utils.EH.CreateInfoEmbed(e, "No accounts linked yet. Run `/setup-hoyolab` or `/setup-endfield` to get started.")
			}
			return utils.EH.CreateErrorEmbed(e, "Failed to load your account data. Please try again later.")
		}

		var fields []discord.EmbedField

		if user.HasHoyolab() {
			var enabled []string
			for _, key := range hoyolab.GameKeys {
				if user.Hoyolab.Games[key] {
					enabled = append(enabled, hoyolab.Games[key].ShortName)
				}
			}
			value := fmt.Sprintf("Account: **%s**\nGames: %s\n%s",
				user.Hoyolab.AccountName,
				strings.Join(enabled, ", "),
				lastClaimLine(user.Hoyolab.LastClaim, user.Hoyolab.LastClaimResult),
			)
			fields = append(fields, discord.EmbedField{Name: "Hoyolab", Value: value})
		}

		if user.HasEndfield() {
			value := fmt.Sprintf("UID: **%s** (%s)\n%s",
				user.Endfield.GameID,
				endfield.ServerNames[user.Endfield.Server],
				lastClaimLine(user.Endfield.LastClaim, user.Endfield.LastClaimResult),
			)
			fields = append(fields, discord.EmbedField{Name: "SKPORT/Endfield", Value: value})
		}

		if len(fields) == 0 {
			return utils.EH.CreateInfoEmbed(e, "No accounts linked yet. Run `/setup-hoyolab` or `/setup-endfield` to get started.")
		}

		notify := "off"
		if user.Settings.NotifyOnClaim {
			notify = "on"
		}

		loc, err := time.LoadLocation(b.Cfg.Scheduler.Timezone)
		if err != nil {
			loc = time.UTC
		}
		next := utils.TimeUntilNextRun(time.Now(), b.Cfg.Scheduler.Hour, b.Cfg.Scheduler.Minute, loc)

		embed := discord.Embed{
			Title:       "📋 Account Status",
			Description: fmt.Sprintf("Next automatic claim in **%s**. DM notifications: **%s**.", utils.FormatDuration(next), notify),
			Fields:      fields,
			Color:       config.InfoColor,
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}

func lastClaimLine(t time.Time, result string) string {
	if t.IsZero() {
		return "Last claim: never"
	}
	line := fmt.Sprintf("Last claim: %s", utils.DiscordTimestamp(t, "R"))
	if result != "" {
		line += " - " + result
	}
	return line
}
