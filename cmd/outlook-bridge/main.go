package main

import (
	"os"

	"github.com/custodia-labs/outlook-bridge/internal/auth"
	"github.com/custodia-labs/outlook-bridge/internal/cli"
	"github.com/custodia-labs/outlook-bridge/internal/config"
	"github.com/custodia-labs/outlook-bridge/internal/graph"
	"github.com/custodia-labs/outlook-bridge/internal/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return 1
	}
	if !cfg.HasClientCredentials() {
		log.Warn().Msg("OUTLOOK_CLIENT_ID not set, token operations will fail until configured")
	}

	graphClient := graph.NewClient(log)
	tokenStore := auth.NewStore(cfg, graphClient, log)

	cli.SetServices(&cli.Services{
		Store:  tokenStore,
		Client: graphClient,
		Config: cfg,
		Log:    log,
	})

	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}
