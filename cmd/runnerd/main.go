// Command runnerd is the plan-execution service (spec §1-§2): it loads
// configuration, wires the engine and registry, and serves the request
// surface over HTTP. Grounded on the teacher's cmd/streamy/main.go wiring
// order (logger first, then infrastructure adapters, then use cases, then
// the command), adapted from a cobra CLI front-end to a long-running daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgerun/runnerd/internal/config"
	"github.com/forgerun/runnerd/internal/engine"
	"github.com/forgerun/runnerd/internal/logging"
	"github.com/forgerun/runnerd/internal/publisher"
	"github.com/forgerun/runnerd/internal/runregistry"
	"github.com/forgerun/runnerd/internal/service"
	"github.com/forgerun/runnerd/internal/transport"
)

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "/etc/runnerd/runnerd.conf", "path to the runnerd configuration file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	appLogger, err := logging.New(logging.Options{Level: *logLevel, Component: "runnerd"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	correlationID := logging.GenerateCorrelationID()
	ctx := logging.WithCorrelationID(context.Background(), correlationID)

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error(ctx, "failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	registry := runregistry.New()
	scheduler := engine.NewScheduler()

	var pub *publisher.Publisher
	if cfg.HermesEnable {
		pub = publisher.New(publisher.Config{
			Address: cfg.HermesGRPCAddress,
			Table:   cfg.HermesTable,
			TLS:     cfg.HermesTLS,
			CACert:  cfg.HermesTLSCACert,
			Domain:  cfg.HermesTLSDomain,
		}, appLogger.With("component", "publisher"), 256)

		pubCtx, cancelPub := context.WithCancel(ctx)
		defer cancelPub()
		go pub.Run(pubCtx)
	}

	svc := service.New(cfg, registry, scheduler, appLogger.With("component", "service"), pub)
	handler := transport.NewServer(svc, appLogger.With("component", "transport"))

	server := &http.Server{Addr: cfg.HostGRPCAddress, Handler: handler}

	go func() {
		appLogger.Info(ctx, "listening", "address", cfg.HostGRPCAddress, "pid", os.Getpid())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error(ctx, "server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	appLogger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(ctx, "graceful shutdown failed", "error", err)
	}

	archived, failures, err := svc.DumpHistAll(ctx)
	if err != nil {
		appLogger.Warn(ctx, "could not archive in-flight runs on shutdown", "error", err)
	} else {
		appLogger.Info(ctx, "archived in-flight runs on shutdown", "archived", len(archived), "failed", len(failures))
	}
}
