package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"setprotocol/config"
	"setprotocol/gateway"
	"setprotocol/gateway/middleware"
	"setprotocol/observability/logging"
	telemetry "setprotocol/observability/otel"
	"setprotocol/sdk/setprotocol"
)

const serviceName = "set-gateway"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./setprotocol.toml", "path to configuration file")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		slog.Error("set-gateway exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger, err := logging.Setup(serviceName, cfg.Environment, cfg.LogOptions())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.TelemetryConfig(serviceName))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	session, err := cfg.Session()
	if err != nil {
		return err
	}
	logger.Info("connecting",
		slog.String("rpc_url", logging.RedactURL(session.RPCURL)),
		slog.String("network", cfg.Network))
	dialCtx, cancelDial := context.WithTimeout(ctx, 15*time.Second)
	client, err := setprotocol.Dial(dialCtx, session)
	cancelDial()
	if err != nil {
		return err
	}
	defer client.Close()

	router, err := gateway.New(client, gateway.Config{
		Logger:         logger,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		RateLimit: middleware.RateLimit{
			RequestsPerMinute: cfg.Gateway.RequestsPerMinute,
			Burst:             cfg.Gateway.Burst,
		},
		Observability: middleware.ObservabilityConfig{
			ServiceName: serviceName,
			LogRequests: cfg.Gateway.LogRequests,
		},
	})
	if err != nil {
		return err
	}

	handler := http.Handler(router)
	if cfg.Telemetry.Traces {
		handler = otelhttp.NewHandler(router, serviceName)
	}

	server := &http.Server{
		Addr:              cfg.Gateway.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: seconds(cfg.Gateway.ReadHeaderTimeout),
		ReadTimeout:       seconds(cfg.Gateway.ReadTimeout),
		WriteTimeout:      seconds(cfg.Gateway.WriteTimeout),
		IdleTimeout:       seconds(cfg.Gateway.IdleTimeout),
	}

	listener, err := net.Listen("tcp", cfg.Gateway.ListenAddress)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", slog.String("address", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", slog.Any("error", err))
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
