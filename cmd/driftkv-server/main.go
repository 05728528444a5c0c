// Package main provides the entry point for driftkv-server, a Redis
// RESP-compatible in-memory data server.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/driftkv/driftkv/internal/aof"
	"github.com/driftkv/driftkv/internal/config"
	"github.com/driftkv/driftkv/internal/connserver"
	"github.com/driftkv/driftkv/internal/dispatch"
	"github.com/driftkv/driftkv/internal/infra/buildinfo"
	"github.com/driftkv/driftkv/internal/infra/confloader"
	"github.com/driftkv/driftkv/internal/infra/shutdown"
	"github.com/driftkv/driftkv/internal/metrics"
	"github.com/driftkv/driftkv/internal/store"
	"github.com/driftkv/driftkv/internal/telemetry/logger"
)

func main() {
	app := &cli.App{
		Name:    "driftkv-server",
		Usage:   "Redis RESP-compatible in-memory data server",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML configuration file"},
			&cli.StringFlag{Name: "bind", Usage: "override the RESP listener address"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting driftkv-server",
		"version", buildinfo.Version, "commit", buildinfo.Commit, "bind", cfg.Bind)

	var watcher *confloader.Watcher
	if configPath := c.String("config"); configPath != "" {
		watcher, err = watchLogLevel(configPath, log)
		if err != nil {
			log.Warn("config hot-reload watcher unavailable", "error", err)
			watcher = nil
		}
	}

	m := metrics.New()
	s := store.New()

	d := dispatch.New(s)
	d.Metrics = m

	var cipherKey []byte
	if cfg.AOF.CipherKeyHex != "" {
		cipherKey, err = hex.DecodeString(cfg.AOF.CipherKeyHex)
		if err != nil {
			return fmt.Errorf("decode aof.cipher_key: %w", err)
		}
	}

	if cfg.AOF.Enabled {
		n, err := aof.Replay(cfg.AOF.Path, cipherKey, func(args [][]byte) error {
			d.Execute(&dispatch.ConnState{SuppressAOF: true}, args)
			return nil
		})
		if err != nil {
			return fmt.Errorf("replay aof: %w", err)
		}
		log.Info("replayed append-only file", "path", cfg.AOF.Path, "commands", n)

		writer, err := aof.Open(cfg.AOF.Path, cfg.AOF.Fsync, cipherKey)
		if err != nil {
			return fmt.Errorf("open aof: %w", err)
		}
		writer.OnFsyncError(func(err error) {
			log.Error("aof fsync failed, entering read-only degraded mode", "error", err)
		})
		d.AOF = writer
		d.AOFPath = cfg.AOF.Path
		d.AOFCipherKey = cipherKey
	}

	connCfg := connserver.DefaultConfig()
	connCfg.Bind = cfg.Bind
	connCfg.MaxConnections = cfg.MaxConnections
	connCfg.MaxCommandsPerSec = cfg.MaxCommandsPerSec
	server := connserver.New(connCfg, d, log, m)

	shutdownHandler := shutdown.NewHandler(cfg.ShutdownTimeout)

	expireCtx, stopExpiry := context.WithCancel(context.Background())
	go s.RunActiveExpiry(expireCtx, cfg.ActiveExpirePeriod)

	var metricsSrv *http.Server
	if cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsBind, Handler: mux}
		go func() {
			log.Info("metrics listener starting", "bind", cfg.MetricsBind)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		stopExpiry()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down RESP listener")
		return server.Shutdown(ctx)
	})
	if metricsSrv != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return metricsSrv.Shutdown(ctx)
		})
	}
	if d.AOF != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("closing append-only file")
			return d.AOF.Close()
		})
	}
	if watcher != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return watcher.Stop()
		})
	}

	if err := server.Start(context.Background()); err != nil {
		return fmt.Errorf("start listener: %w", err)
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// watchLogLevel re-reads the log level from configPath whenever it changes
// on disk and applies it live via logger.SetLevel. Other configuration keys
// (bind address, AOF settings) require a restart; only the log level is
// safe to change without re-wiring listeners or the AOF writer.
func watchLogLevel(configPath string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configPath); err != nil {
		return nil, err
	}
	w.OnChange(func(path string) {
		reloaded := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(configPath)).Load(reloaded); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		logger.SetLevel(reloaded.Log.Level)
		log.Info("log level reloaded", "level", reloaded.Log.Level)
	})
	w.StartAsync()
	return w, nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	l := confloader.NewLoader(opts...)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}

	if bind := c.String("bind"); bind != "" {
		cfg.Bind = bind
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
