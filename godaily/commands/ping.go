package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
)

var Ping = discord.SlashCommandCreate{
	Name:        "ping",
	Description: "Check the bot's gateway latency",
}

func PingHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🏓 Pong!",
				Description: fmt.Sprintf("Gateway latency: **%s**", b.Client.Gateway().Latency()),
				Color:       config.InfoColor,
			}},
		})
	}
}
