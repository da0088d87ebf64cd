package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/go-while/go-salas/internal/config"
	"github.com/go-while/go-salas/internal/logging"
	"github.com/go-while/go-salas/internal/routes"
	"github.com/go-while/go-salas/internal/telemetry"
	"github.com/go-while/go-salas/internal/web"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setupTelemetry is replaced in tests
var setupTelemetry = telemetry.Setup

// loadServeConfig reads config sources and applies command-line overrides
func loadServeConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Override config with command-line flags if provided
	if webport, _ := cmd.Flags().GetInt("webport"); webport > 0 {
		cfg.Web.ListenPort = webport
	}
	if webssl, _ := cmd.Flags().GetBool("webssl"); webssl {
		cfg.Web.SSL = true
	}
	if cert, _ := cmd.Flags().GetString("websslcert"); cert != "" {
		cfg.Web.CertFile = cert
	}
	if key, _ := cmd.Flags().GetString("websslkey"); key != "" {
		cfg.Web.KeyFile = key
	}
	if addr, _ := cmd.Flags().GetString("pprof"); addr != "" {
		cfg.Web.PprofAddr = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting go-salas web server",
		zap.String("version", config.AppVersion),
		zap.Int("port", cfg.Web.ListenPort),
		zap.Bool("ssl", cfg.Web.SSL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := setupTelemetry(ctx, telemetry.Config{
		Tracing:     cfg.Telemetry.Tracing,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     config.AppVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	if cfg.Web.PprofAddr != "" {
		logger.Info("Serving pprof", zap.String("addr", cfg.Web.PprofAddr))
		go prof.NewProf().PprofWeb(cfg.Web.PprofAddr)
	}

	server, err := web.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		webServerErrChan <- server.Start()
	}()

	// Wait for either shutdown signal or server error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, initiating graceful shutdown")
	case err := <-webServerErrChan:
		if err != nil {
			return fmt.Errorf("web server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Web server shutdown failed", zap.Error(err))
	}

	logger.Info("Graceful shutdown completed")
	return nil
}

// printRoutes writes the route table as a text table
func printRoutes(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PATH", "NAME", "TEMPLATE"})
	table.SetAutoWrapText(false)
	for _, r := range routes.All() {
		table.Append([]string{r.Path, r.Name, r.Template})
	}
	table.Render()
}

// printAssets lists the static files embedded in the binary
func printAssets(w io.Writer) error {
	files, err := web.ListEmbeddedFiles()
	if err != nil {
		return fmt.Errorf("failed to list embedded assets: %w", err)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ASSET", "URL"})
	table.SetAutoWrapText(false)
	for _, f := range files {
		table.Append([]string{f, "/" + f})
	}
	table.Render()
	return nil
}
