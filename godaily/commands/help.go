package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/config"
)

var Help = discord.SlashCommandCreate{
	Name:        "help",
	Description: "How to set up and use the bot",
}

type helpPage struct {
	title string
	body  string
}

var helpPages = []helpPage{
	{
		title: "Getting Started",
		body: "I claim your daily check-in rewards automatically every night.\n\n" +
			"**Hoyolab** (Genshin, Star Rail, ZZZ, Honkai 3rd, Tears of Themis): `/setup-hoyolab`\n" +
			"**Arknights: Endfield** (SKPORT): `/setup-endfield`\n\n" +
			"After setup, `/claim` claims instantly and `/status` shows what happened last night.",
	},
	{
		title: "Getting Your Hoyolab Cookie",
		body: "1. Log in at <https://www.hoyolab.com>\n" +
			"2. Open your browser's developer tools (F12) → Application/Storage → Cookies\n" +
			"3. Copy the full cookie string, including `ltoken_v2` and `ltuid_v2`\n" +
			"4. Run `/setup-hoyolab` and paste it\n\n" +
			"Include `cookie_token_v2` as well if you want `/redeem` to work.",
	},
	{
		title: "Getting Your SKPORT Token",
		body: "1. Log in at <https://skport.gryphline.com>\n" +
			"2. Open developer tools (F12) → Application/Storage → Cookies\n" +
			"3. Copy the value of the `ACCOUNT` cookie\n" +
			"4. Run `/setup-endfield` with that token, your Endfield UID, and your server\n\n" +
			"Servers: Asia, or Americas/Europe.",
	},
	{
		title: "Commands",
		body: "`/claim [platform]` - claim now (5 min cooldown)\n" +
			"`/redeem <game> <code>` - redeem a Hoyolab gift code\n" +
			"`/status` - linked accounts and last results\n" +
			"`/settings notify` - toggle nightly result DMs\n" +
			"`/remove <platform>` - delete stored credentials\n" +
			"`/statistic` - bot statistics\n" +
			"`/ping` - latency check",
	},
	{
		title: "Privacy & Safety",
		body: "Your tokens are stored only to perform claims on your behalf and are " +
			"deleted immediately with `/remove`. Tokens are never shown in full " +
			"anywhere, including bot logs.\n\n" +
			"If a claim fails with an authentication error, your token has expired - " +
			"just re-run the setup command with a fresh one.",
	},
}

func HelpHandler(b *godaily.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				p := helpPages[page]
				embed.
					SetTitle("❓ " + p.title).
					SetDescription(p.body).
					SetColor(config.InfoColor)
			},
			Pages:      len(helpPages),
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
