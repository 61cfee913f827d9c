package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/endfield"
	"github.com/ellavondegurechaff/godaily/godaily/hoyolab"
)

// FormatHoyolabResults renders per-game outcomes into the summary string
// stored as the account's last claim result.
func FormatHoyolabResults(results []hoyolab.ClaimResult) string {
	if len(results) == 0 {
		return "No games configured for claiming"
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		icon := "❌"
		if r.Success {
			icon = "✅"
			if r.AlreadyClaimed {
				icon = "🔄"
			}
		}
		lines = append(lines, fmt.Sprintf("%s **%s**: %s", icon, r.Game, r.Message))
	}
	return strings.Join(lines, "\n")
}

// FormatEndfieldResult renders an Endfield outcome, including the reward
// list on a fresh claim.
func FormatEndfieldResult(result endfield.ClaimResult) string {
	if !result.Success {
		return fmt.Sprintf("❌ **%s**: %s", endfield.GameName, result.Message)
	}

	if result.AlreadyClaimed {
		return fmt.Sprintf("✅ **%s**: Already claimed today", endfield.GameName)
	}

	msg := fmt.Sprintf("✅ **%s**: %s", endfield.GameName, result.Message)
	for _, r := range result.Rewards {
		count := r.Count
		if count == 0 {
			count = 1
		}
		msg += fmt.Sprintf("\n• %s x%d", r.Name, count)
	}
	return msg
}

// SummarySections collects the per-platform summary blocks for one account.
func SummarySections(result AccountResult) []string {
	var sections []string
	if result.Hoyolab != nil {
		sections = append(sections, "**Hoyolab**\n"+result.HoyolabSummary)
	}
	if result.Endfield != nil {
		sections = append(sections, "**SKPORT/Endfield**\n"+result.EndfieldSummary)
	}
	return sections
}

// SummaryEmbed builds the DM embed for a finished claim run.
func SummaryEmbed(sections []string) discord.Embed {
	return discord.Embed{
		Title:       "📋 Daily Claim Results",
		Description: strings.Join(sections, "\n\n"),
		Color:       config.SuccessColor,
		Timestamp:   timePtr(time.Now()),
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// DMSender delivers a summary embed to one user. Implementations may fail;
// the reporter swallows those failures.
type DMSender interface {
	SendDM(ctx context.Context, discordID string, embed discord.Embed) error
}

// DiscordDMSender sends summaries through the bot's REST client.
type DiscordDMSender struct {
	Client bot.Client
}

func (s *DiscordDMSender) SendDM(ctx context.Context, discordID string, embed discord.Embed) error {
	id, err := snowflake.Parse(discordID)
	if err != nil {
		return fmt.Errorf("invalid discord id %q: %w", discordID, err)
	}

	channel, err := s.Client.Rest().CreateDMChannel(id)
	if err != nil {
		return err
	}

	_, err = s.Client.Rest().CreateMessage(channel.ID(), discord.MessageCreate{
		Embeds: []discord.Embed{embed},
	})
	return err
}

// Reporter delivers claim summaries by DM. Delivery failures (DMs off, bot
// blocked) are logged and never propagate or retry.
type Reporter struct {
	sender DMSender
}

func NewReporter(sender DMSender) *Reporter {
	return &Reporter{sender: sender}
}

func (r *Reporter) Deliver(ctx context.Context, discordID string, result AccountResult) {
	sections := SummarySections(result)
	if len(sections) == 0 {
		return
	}

	if err := r.sender.SendDM(ctx, discordID, SummaryEmbed(sections)); err != nil {
		slog.Warn("Could not DM claim summary",
			slog.String("type", "claim"),
			slog.String("discord_id", discordID),
			slog.String("error", err.Error()))
	}
}
