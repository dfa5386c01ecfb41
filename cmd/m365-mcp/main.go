package main

import (
	"log"
	"os"
	"time"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/cli"
	"github.com/simplemotion/m365-mcp/internal/config"
	"github.com/simplemotion/m365-mcp/internal/graph"
	"github.com/simplemotion/m365-mcp/internal/history"
	"github.com/simplemotion/m365-mcp/internal/profile"
	"github.com/simplemotion/m365-mcp/internal/secrets"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	dir, err := config.Dir("")
	if err != nil {
		log.Printf("failed to prepare config directory: %v", err)
		return 1
	}

	cfg, err := config.Load(dir)
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return 1
	}

	secretStore := secrets.Open(dir)
	resolver := auth.NewResolver(secretStore)
	cache := auth.NewCache(dir)
	engine := auth.NewEngine(resolver, cache, auth.Options{
		HTTPTimeout:       time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		DeviceCodeTimeout: time.Duration(cfg.DeviceCode.TimeoutSeconds) * time.Second,
	})

	graphClient := graph.NewClient(engine, graph.Options{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RateLimit: graph.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
	})

	historyStore, err := history.Open(dir)
	if err != nil {
		log.Printf("failed to open history store: %v", err)
		return 1
	}
	defer historyStore.Close()

	cli.SetServices(&cli.Services{
		Engine:    engine,
		Graph:     graphClient,
		Profiles:  profile.NewRegistry(dir, cfg.Profiles),
		Secrets:   secretStore,
		History:   historyStore,
		Config:    cfg,
		ConfigDir: dir,
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
