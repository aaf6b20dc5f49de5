// Package main is the entry point for the Telegram-Discord bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tgcord/internal/auth"
	"tgcord/internal/bridge"
	"tgcord/internal/config"
	"tgcord/internal/console"
	"tgcord/internal/discord"
	"tgcord/internal/event"
	"tgcord/internal/fileserver"
	"tgcord/internal/store"
	"tgcord/internal/tdjson"
	"tgcord/internal/translate"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to config file")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override from flags if provided
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var logHandler slog.Handler
	if cfg.LogFormat == "text" {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		logHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("tgcord starting",
		"config", *configPath,
		"log_level", cfg.LogLevel,
	)

	// Ensure data directories exist
	for _, dir := range []string{
		filepath.Dir(cfg.StorePath),
		cfg.TelegramDatabaseDir,
		cfg.TelegramFilesDir,
	} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			logger.Error("Failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Initialize store
	storeDB, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer storeDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Connect to the tdjson gateway
	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	transport, err := tdjson.Dial(dialCtx, cfg.GatewayURL, logger)
	dialCancel()
	if err != nil {
		logger.Error("Failed to connect to tdjson gateway", "url", cfg.GatewayURL, "error", err)
		os.Exit(1)
	}
	defer transport.Close()

	// Warm the identity cache from the store
	cache := translate.NewUserCache()
	if users, err := storeDB.Users.All(ctx); err != nil {
		logger.Warn("Failed to warm identity cache", "error", err)
	} else {
		for _, u := range users {
			cache.Put(translate.UserInfo{
				UserID:    u.ID,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Username:  u.Username,
				AvatarURL: u.AvatarURL,
			})
		}
		logger.Info("Identity cache warmed", "users", cache.Len())
	}

	// Interactive prompts for the authorization phase
	prompter, err := console.NewPrompter()
	if err != nil {
		logger.Error("Failed to initialize console", "error", err)
		os.Exit(1)
	}
	defer prompter.Close()

	authorizer := auth.NewAuthorizer(transport, prompter, auth.Credentials{
		APIID:       cfg.TelegramAPIID,
		APIHash:     cfg.TelegramAPIHash,
		DatabaseDir: cfg.TelegramDatabaseDir,
		FilesDir:    cfg.TelegramFilesDir,
	}, logger)

	// Discord side
	session, err := discord.NewSession(cfg.DiscordToken, logger)
	if err != nil {
		logger.Error("Failed to create Discord session", "error", err)
		os.Exit(1)
	}

	b := bridge.New(bridge.Options{
		Transport:        transport,
		Authorizer:       authorizer,
		Decoder:          event.NewDecoder(logger),
		Pipeline:         translate.NewPipeline(cfg.MediaBaseURL, cfg.TelegramFilesDir, logger),
		Webhook:          discord.NewWebhookClient(cfg.WebhookURL),
		Plain:            session,
		Cache:            cache,
		Users:            storeDB.Users,
		Files:            storeDB.Files,
		Log:              logger,
		TelegramChatID:   cfg.TelegramChatID,
		DiscordChannelID: cfg.DiscordChannelID,
		ReceiveTimeout:   cfg.ReceiveTimeout,
		PollInterval:     cfg.PollInterval,
	})

	// Media file server with the health endpoint
	fs := fileserver.New(cfg.FileServerAddr, cfg.TelegramFilesDir, b.Health(), logger)
	go func() {
		if err := fs.Start(); err != nil {
			logger.Error("File server failed", "error", err)
		}
	}()

	// Authorization happens on the main goroutine so the operator prompts
	// own the terminal before anything else starts producing output.
	if err := b.Authorize(ctx); err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}

	// Open the Discord gateway only once we can forward both ways
	if err := session.Start(b.HandleInbound); err != nil {
		logger.Error("Failed to open Discord gateway", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig)
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			logger.Error("Bridge stopped with error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := fs.Shutdown(shutdownCtx); err != nil {
		logger.Warn("File server shutdown failed", "error", err)
	}

	logger.Info("tgcord stopped")
}
