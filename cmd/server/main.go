package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"example.com/wwwserve/internal/config"
	"example.com/wwwserve/internal/handlers/staticfile"
	"example.com/wwwserve/internal/logger"
	"example.com/wwwserve/internal/server"
)

type options struct {
	configPath string
	addr       string
	root       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Cobra already printed the error.
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "wwwserve",
		Short:         "Serve .html and .css files from a document root over HTTP/1.1",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the configuration file (JSON or TOML)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides server.address")
	cmd.Flags().StringVar(&opts.root, "root", "", "document root, overrides static.document_root")
	return cmd
}

// resolveConfig loads the configuration file, if any, and applies flag overrides.
func resolveConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		absConfigPath, err := filepath.Abs(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("error getting absolute path for config file %s: %w", opts.configPath, err)
		}
		cfg, err = config.LoadConfig(absConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	if opts.addr != "" {
		addr := opts.addr
		cfg.Server.Address = &addr
	}
	if opts.root != "" {
		cfg.Static.DocumentRoot = opts.root
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	appLogger, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := appLogger.CloseLogFiles(); err != nil {
			log.Printf("Error closing log files during shutdown: %v", err)
		}
	}()

	handler, err := staticfile.New(cfg.Static, appLogger)
	if err != nil {
		appLogger.Error("Failed to create static file handler", logger.LogFields{"error": err.Error()})
		return err
	}

	srv, err := server.NewServer(cfg, appLogger, handler)
	if err != nil {
		appLogger.Error("Failed to initialize server", logger.LogFields{"error": err.Error()})
		return err
	}

	appLogger.Info("Starting server", logger.LogFields{
		"address":           *cfg.Server.Address,
		"document_root":     cfg.Static.DocumentRoot,
		"read_timeout":      cfg.Server.ReadTimeoutDuration().String(),
		"max_request_bytes": humanize.Bytes(uint64(*cfg.Server.MaxRequestBytes)),
	})

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server exited with an error", logger.LogFields{"error": err.Error()})
		return err
	}
	appLogger.Info("Server has shut down gracefully", nil)
	return nil
}
