// Command portiq runs the reverse-proxy gateway described by a single
// YAML configuration file: it starts every configured listener, serves
// the admin API, and reloads in place on demand through
// POST /api/v1/reload.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ajju10/portiq/internal/admin"
	"github.com/ajju10/portiq/internal/config"
	"github.com/ajju10/portiq/internal/frontend"
	"github.com/ajju10/portiq/internal/gateway"
	"github.com/ajju10/portiq/internal/logging"
	"github.com/ajju10/portiq/internal/proxy"
	"github.com/ajju10/portiq/internal/supervisor"
)

var version = "dev"

// drainWindow is the outer guard on top of each listener's own 5s
// shutdown timeout, so a stuck listener cannot hang the process past a
// bounded wait.
const drainWindow = 7 * time.Second

func main() {
	configPath := flag.String("config", "configs/portiq.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validateOnly := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("portiq %s\n", version)
		os.Exit(0)
	}

	loader := config.NewLoader()
	if *validateOnly {
		if _, err := loader.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	// A first load before any logger exists, purely to read the log
	// config itself; Gateway.New below reloads the file into the live
	// runtime.
	bootCfg, err := loader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(bootCfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if logCloser != nil {
		defer logCloser.Close()
	}

	accessLogger, accessCloser, err := logging.New(bootCfg.AccessLog)
	if err != nil {
		logger.Fatal("failed to initialize access logger", zap.Error(err))
	}
	defer accessLogger.Sync()
	if accessCloser != nil {
		defer accessCloser.Close()
	}

	gw, err := gateway.New(*configPath, loader, logger, accessLogger)
	if err != nil {
		logger.Fatal("failed to build gateway", zap.Error(err))
	}

	logger.Info("starting portiq", zap.String("version", version), zap.String("config", *configPath))

	p := proxy.New(logger)
	sup := supervisor.New(logger)

	for _, l := range bootCfg.Listeners {
		switch l.Protocol {
		case config.ProtocolHTTP, config.ProtocolHTTPS:
			h, err := frontend.NewHTTP(l, gw, p, logger)
			if err != nil {
				logger.Fatal("failed to build http listener", zap.String("listener", l.Name), zap.Error(err))
			}
			sup.Add(l.Name, h)
		case config.ProtocolTCP:
			sup.Add(l.Name, frontend.NewTCP(l, gw, logger))
		default:
			logger.Fatal("unknown listener protocol", zap.String("listener", l.Name), zap.String("protocol", string(l.Protocol)))
		}
	}

	sup.Add("admin", admin.New(bootCfg.AdminAPI.Addr, version, gw, logger))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- sup.Run(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining", zap.Duration("window", drainWindow))
		select {
		case err := <-runErr:
			if err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}
		case <-time.After(drainWindow):
			logger.Warn("drain window elapsed before all listeners stopped")
		}
	case err := <-runErr:
		if err != nil {
			logger.Error("listener failure", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("portiq stopped")
}
