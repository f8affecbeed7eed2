package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raopodili/mcpgen/internal/backend"
	"github.com/raopodili/mcpgen/internal/config"
	"github.com/raopodili/mcpgen/internal/gitx"
	"github.com/raopodili/mcpgen/internal/history"
	"github.com/raopodili/mcpgen/internal/orchestrator"
	"github.com/raopodili/mcpgen/internal/publish"
	"github.com/raopodili/mcpgen/internal/repoctx"
	"github.com/raopodili/mcpgen/internal/repos"
	"github.com/raopodili/mcpgen/internal/server"
	"github.com/raopodili/mcpgen/internal/tasks"
	"github.com/spf13/cobra"
)

var (
	configPath string
	listenAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mcpgen daemon",
	Long:  `Starts the mcpgen daemon which provides the HTTP API for code generation tasks.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ~/.mcpgen/config.yaml)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting mcpgen daemon...")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromHome()
	}
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	// Generation backend. Validation failures are fatal so a
	// misconfigured daemon never accepts work it cannot complete.
	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = gen.Validate(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("backend %q validation failed: %w", gen.Name(), err)
	}
	log.Printf("Backend %s ready (model %s)", gen.Name(), gen.Model())

	runner := gitx.NewRunner()
	source := repos.NewSource(runner, cfg.CloneDir)
	aggregator := repoctx.NewAggregator(repoctx.NewCache(), cfg.Extensions, cfg.PerFileCap)

	var discoverer orchestrator.Discoverer
	if cfg.DiscoveryEnabled() {
		discoverer = repos.NewListingClient(cfg.ListingURL, cfg.APIUser, cfg.APIPassword)
		log.Printf("Repository discovery enabled for workspace %s", cfg.Workspace)
	}

	var publisher orchestrator.Publisher
	if cfg.PublishBranch != "" {
		publisher = publish.New(runner)
		log.Printf("Publishing to branch %s", cfg.PublishBranch)
	}

	// Generation history is an audit log; a broken database disables
	// it rather than taking down the daemon.
	var hist *history.Store
	if cfg.HistoryDB != "" {
		hist, err = history.New(cfg.HistoryDB)
		if err != nil {
			log.Printf("Warning: history disabled: %v", err)
			hist = nil
		}
	}

	service := orchestrator.New(cfg, tasks.NewManager(), aggregator, source, discoverer, publisher, gen, hist)
	srv := server.NewServer(service, cfg.Listen)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		err := srv.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			closeHistory(hist)
			return err
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	closeHistory(hist)
	log.Println("Shutdown complete")
	return nil
}

func newGenerator(cfg *config.Config) (backend.Generator, error) {
	switch cfg.Backend {
	case "ollama":
		return backend.NewOllama(cfg.OllamaURL, cfg.OllamaModel), nil
	case "anthropic":
		return backend.NewAnthropic("", cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func closeHistory(hist *history.Store) {
	if hist == nil {
		return
	}
	log.Println("Closing history database...")
	if err := hist.Close(); err != nil {
		log.Printf("History close error: %v", err)
	}
}
