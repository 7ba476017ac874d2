// Package main is the entry point for the Discord snake bot.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"discord-snake-bot/internal/bot"
	"discord-snake-bot/internal/config"
	"discord-snake-bot/internal/dictionary"
	"discord-snake-bot/internal/disambig"
	"discord-snake-bot/internal/handler"
	"discord-snake-bot/internal/paginate"
	"discord-snake-bot/internal/platform"
	"discord-snake-bot/internal/resolver"
	"discord-snake-bot/internal/wiki"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	// Load the static name dictionary, read once and immutable from
	// here on.
	dict, err := dictionary.Load(cfg.Data.NamesPath, cfg.Data.FactsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load name dictionary")
	}
	log.Info().Int("entries", dict.Len()).Msg("Name dictionary loaded")

	// Create the Discord session
	session, err := platform.NewSession(cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}

	// Build the lookup pipeline: resolver -> disambiguator -> fetcher
	res := resolver.New(dict, nil)

	presenter := paginate.New(session, session, &paginate.Config{
		PageSize:    cfg.Disambig.PageSize,
		PageBudget:  cfg.Disambig.PageBudget,
		IdleTimeout: cfg.Disambig.IdleTimeout,
	})

	disambiguator := disambig.New(session, presenter)

	wikiClient := wiki.NewClient(&wiki.Config{
		BaseURL:      cfg.Wiki.BaseURL,
		Timeout:      cfg.Wiki.Timeout,
		ExtractLimit: cfg.Wiki.ExtractLimit,
	})

	snakeHandler := handler.NewSnakeHandler(cfg, dict, res, disambiguator, wikiClient, session, session, nil)

	b := bot.New(&bot.Dependencies{
		Config:       cfg,
		Session:      session,
		SnakeHandler: snakeHandler,
	})

	if err := b.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start bot")
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	b.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
