package commands

import (
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	SetupHoyolab,
	SetupEndfield,
	Claim,
	Redeem,
	Status,
	Settings,
	Remove,
	Statistic,
	Help,
	Ping,
}
