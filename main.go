package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/godaily/godaily"
	"github.com/ellavondegurechaff/godaily/godaily/checkin"
	"github.com/ellavondegurechaff/godaily/godaily/commands"
	"github.com/ellavondegurechaff/godaily/godaily/config"
	"github.com/ellavondegurechaff/godaily/godaily/credcache"
	"github.com/ellavondegurechaff/godaily/godaily/database"
	"github.com/ellavondegurechaff/godaily/godaily/database/repositories"
	"github.com/ellavondegurechaff/godaily/godaily/endfield"
	"github.com/ellavondegurechaff/godaily/godaily/handlers"
	"github.com/ellavondegurechaff/godaily/godaily/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting GoDaily Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := godaily.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		URI:      cfg.DB.URI,
		Database: cfg.DB.Database,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		db.Close(closeCtx)
	}()

	b := godaily.New(*cfg, version, commit)
	b.DB = db
	b.UserRepository = repositories.NewUserRepository(db.Users())
	b.CredCache = credcache.New(config.CredentialCacheTTL)
	b.Orchestrator = checkin.NewOrchestrator(b.UserRepository, b.CredCache, endfield.NewExchanger())
	b.LockManager = checkin.NewLockManager(config.ManualClaimCooldown)

	h := handler.New()

	h.Command("/setup-hoyolab", handlers.WrapWithLogging("setup-hoyolab", commands.SetupHoyolabHandler(b)))
	h.Component("/setup-hoyolab/games", handlers.WrapComponentWithLogging("setup-hoyolab-games", commands.HoyolabGamesHandler(b)))
	h.Command("/setup-endfield", handlers.WrapWithLogging("setup-endfield", commands.SetupEndfieldHandler(b)))
	h.Command("/claim", handlers.WrapWithLogging("claim", commands.ClaimHandler(b)))
	h.Command("/redeem", handlers.WrapWithLogging("redeem", commands.RedeemHandler(b)))
	h.Autocomplete("/redeem", commands.RedeemAutocompleteHandler)
	h.Command("/status", handlers.WrapWithLogging("status", commands.StatusHandler(b)))
	h.Command("/settings", handlers.WrapWithLogging("settings", commands.SettingsHandler(b)))
	h.Command("/remove", handlers.WrapWithLogging("remove", commands.RemoveHandler(b)))
	h.Command("/statistic", handlers.WrapWithLogging("statistic", commands.StatisticHandler(b)))
	h.Command("/help", handlers.WrapWithLogging("help", commands.HelpHandler(b)))
	h.Command("/ping", handlers.WrapWithLogging("ping", commands.PingHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		b.Client.Close(closeCtx)
	}()

	reporter := checkin.NewReporter(&checkin.DiscordDMSender{Client: b.Client})
	b.Scheduler = checkin.NewScheduler(b.Orchestrator, b.UserRepository, reporter, checkin.ScheduleConfig{
		Hour:     cfg.Scheduler.Hour,
		Minute:   cfg.Scheduler.Minute,
		Timezone: cfg.Scheduler.Timezone,
		Leader:   cfg.Scheduler.Leader,
	})

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gwCtx, gwCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gwCancel()
	if err = b.Client.OpenGateway(gwCtx); err != nil {
		logger.LogError("Failed to open gateway", err,
			slog.String("component", "gateway"))
		os.Exit(-1)
	}

	if err = b.Scheduler.Start(); err != nil {
		logger.LogError("Failed to start claim scheduler", err)
		os.Exit(-1)
	}
	defer b.Scheduler.Stop()

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	b.LockManager.StartCleanupRoutine(cleanupCtx)

	logger.LogSystem("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	logger.LogSystem("Shutting down bot...")
}
