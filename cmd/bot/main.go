// Package main contains the entrypoint for the conversation bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/convobot/internal/command"
	"github.com/edgard/convobot/internal/commands"
	"github.com/edgard/convobot/internal/config"
	"github.com/edgard/convobot/internal/database"
	"github.com/edgard/convobot/internal/dispatcher"
	"github.com/edgard/convobot/internal/gemini"
	"github.com/edgard/convobot/internal/logger"
	"github.com/edgard/convobot/internal/scheduler"
	"github.com/edgard/convobot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, db, ai client,
// bot, dispatcher, scheduler, webhook server), blocks until the context is
// cancelled, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	var aiClient gemini.Client
	if cfg.AI.Enabled {
		aiClient, err = gemini.NewClient(ctx, cfg.AI, log)
		if err != nil {
			log.Error("Failed to initialize AI client", "error", err)
			return 1
		}
	}

	// The dispatcher needs the bot identity from GetMe, which needs the bot,
	// which needs the default handler. Route through a pointer filled in
	// after construction; no updates arrive before StartWebhook anyway.
	var disp *dispatcher.Dispatcher
	defaultHandler := func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		if disp == nil {
			return
		}
		if _, err := disp.Handle(ctx, update); err != nil {
			log.ErrorContext(ctx, "Failed to handle update", "update_id", update.ID, "error", err)
		}
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(defaultHandler),
	}
	tg, err := telegram.NewBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	registry := command.NewRegistry(log)
	commands.RegisterAll(registry, commands.Deps{
		Messages: cfg.Messages,
		AI:       aiClient,
	})

	sender := telegram.NewSender(tg, log)
	disp = dispatcher.New(registry, store, sender, cfg.Telegram.BotInfo.ID, cfg.Telegram.BotInfo.Username, log)

	if err := telegram.RegisterWebhook(ctx, tg, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret, log); err != nil {
		log.Error("Failed to register webhook", "error", err)
		return 1
	}

	sched, err := scheduler.New(scheduler.TaskDeps{
		Logger: log,
		Store:  store,
		Config: &cfg.Scheduler,
	})
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: tg.WebhookHandler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Webhook server listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// Consumes updates the webhook handler enqueues; returns on cancel.
		tg.StartWebhook(gctx)
		return nil
	})

	g.Go(func() error {
		if err := sched.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return sched.Stop()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("Bot started")
	runErr := g.Wait()
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
