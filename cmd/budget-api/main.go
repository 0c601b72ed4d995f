// Package main is the entry point for the budget-api binary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holyrood-analytics/scotbudget/pkg/api"
	"github.com/holyrood-analytics/scotbudget/pkg/budget"
	"github.com/holyrood-analytics/scotbudget/pkg/config"
	"github.com/holyrood-analytics/scotbudget/pkg/logging"
	"github.com/holyrood-analytics/scotbudget/pkg/microsim"
	"github.com/holyrood-analytics/scotbudget/pkg/telemetry"
)

const (
	telemetryShutdownTimeout = 5 * time.Second
	gracefulShutdownTimeout  = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	listenAddr := flag.String("listen", "", "Address to listen on (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error; overrides config)")
	prettyLogs := flag.Bool("pretty", false, "Enable pretty console logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewLogger(logging.Config{Level: "info", Pretty: *prettyLogs}).
			Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Apply flag overrides
	if *listenAddr != "" {
		cfg.Server.Address = *listenAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *prettyLogs {
		cfg.Logging.Pretty = true
	}

	// Setup Logging
	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	logger.Info("Starting budget-api", "config", *configPath, "addr", cfg.Server.Address)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup Tracing
	telemetryShutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		logger.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(telemetryShutdown, logger)

	// Setup Overrides Provider
	var overrides config.Overrides
	var provider *config.OverridesProvider
	if cfg.Overrides.File != "" {
		provider, err = config.NewOverridesProvider(cfg.Overrides.File, logger)
		if err != nil {
			logger.Error("Failed to initialize overrides provider", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := provider.Close(); err != nil {
				logger.Error("Failed to close overrides provider", "error", err)
			}
		}()
		overrides = provider.Current()
	}

	// Build Calculator
	calc, err := buildCalculator(overrides)
	if err != nil {
		logger.Error("Failed to build calculator", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(calc, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EnableMetrics:  cfg.Telemetry.MetricsEnabled,
		EnableTracing:  cfg.Telemetry.OTLPEndpoint != "",
	}, logger)

	// Start Overrides Watcher
	if provider != nil {
		go watchOverrides(provider, server, logger)
	}

	// Start Server
	httpServer := startServer(cfg.Server.Address, server.Router(), logger)

	// Wait for shutdown
	waitForShutdown(httpServer, logger)
}

// buildCalculator assembles a calculator from the default parameters with
// the override snapshot applied on top.
func buildCalculator(overrides config.Overrides) (*budget.Calculator, error) {
	params, err := microsim.DefaultParameters()
	if err != nil {
		return nil, err
	}
	overrides.Apply(params)

	return budget.NewCalculator(
		budget.WithParameters(params),
		budget.WithSurcharges(overrides.Surcharges()),
	)
}

// watchOverrides rebuilds the calculator whenever a new overrides snapshot
// lands and swaps it into the running server.
func watchOverrides(provider *config.OverridesProvider, server *api.Server, logger *slog.Logger) {
	updates := provider.Subscribe()
	for snapshot := range updates {
		calc, err := buildCalculator(snapshot)
		if err != nil {
			logger.Error("Failed to rebuild calculator from overrides", "error", err)
			continue
		}
		server.SetCalculator(calc)
		logger.Info("Calculator rebuilt from policy overrides")
	}
}

func startServer(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Failed to bind listener", "addr", addr, "error", err)
		os.Exit(1)
	}

	// Log the actual resolved address (useful when addr is :0)
	logger.Info("Server listening", "addr", listener.Addr().String())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(server *http.Server, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh

	logger.Info("Shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
}

func shutdownTelemetry(shutdown func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Telemetry shutdown error", "error", err)
	}
}
