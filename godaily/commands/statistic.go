package commands

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/utils"
)

var Statistic = discord.SlashCommandCreate{
	Name:        "statistic",
	Description: "Show bot statistics",
}

func StatisticHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		counts, err := b.UserRepository.Counts(ctx)
		if err != nil {
			return utils.EH.CreateErrorEmbed(e, "Failed to load statistics. Please try again later.")
		}

		loc, err := time.LoadLocation(b.Cfg.Scheduler.Timezone)
		if err != nil {
			loc = time.UTC
		}
		next := utils.TimeUntilNextRun(time.Now(), b.Cfg.Scheduler.Hour, b.Cfg.Scheduler.Minute, loc)

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		embed := discord.Embed{
			Title: "📊 Bot Statistics",
			Fields: []discord.EmbedField{
				{Name: "Registered Users", Value: utils.FormatNumber(counts.Total), Inline: utils.Ptr(true)},
				{Name: "Hoyolab Accounts", Value: utils.FormatNumber(counts.Hoyolab), Inline: utils.Ptr(true)},
				{Name: "Endfield Accounts", Value: utils.FormatNumber(counts.Endfield), Inline: utils.Ptr(true)},
				{Name: "Cached Credentials", Value: fmt.Sprintf("%d", b.CredCache.Len()), Inline: utils.Ptr(true)},
				{Name: "Servers", Value: fmt.Sprintf("%d", b.Client.Caches().GuildsLen()), Inline: utils.Ptr(true)},
				{Name: "Uptime", Value: utils.FormatUptime(time.Since(b.StartTime)), Inline: utils.Ptr(true)},
				{Name: "Memory", Value: fmt.Sprintf("%.1f MB", float64(mem.Alloc)/1024/1024), Inline: utils.Ptr(true)},
				{Name: "Next Scheduled Run", Value: utils.FormatDuration(next), Inline: utils.Ptr(true)},
				{Name: "Version", Value: fmt.Sprintf("%s (%s)", b.Version, b.Commit), Inline: utils.Ptr(true)},
			},
			Color: config.InfoColor,
		}
		return e.CreateMessage(discord.MessageCreate{Embeds: []discord.Embed{embed}})
	}
}
