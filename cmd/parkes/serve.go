package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dministrator/parkes/examples/blog/app"
	"github.com/dministrator/parkes/examples/blog/app/store"
	"github.com/dministrator/parkes/internal/config"
	"github.com/dministrator/parkes/internal/orm"
	"github.com/dministrator/parkes/pkg/parkes"
)

const defaultConfigHint = config.DefaultPath

// slowQuery is the duration above which sqlite statements log at warn.
const slowQuery = 200 * time.Millisecond

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.Load(path)
	}
	return config.LoadWithFallback(config.DefaultPath)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			watch, _ := cmd.Flags().GetBool("watch")
			noWatch, _ := cmd.Flags().GetBool("no-watch")
			if watch && !noWatch {
				ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()
				paths, _ := cmd.Flags().GetStringSlice("watch-paths")
				if len(paths) == 0 {
					paths = []string{"."}
				}
				ignore, _ := cmd.Flags().GetStringSlice("watch-ignore")
				child := []string{"serve", "--no-watch", "--addr", cfg.Server.Addr}
				if path, _ := cmd.Flags().GetString("config"); path != "" {
					child = append(child, "--config", path)
				}
				return WatchAndRun(ctx, paths, ignore, child)
			}

			logger := cfg.Logging.Logger(os.Stdout)
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			srv, s, err := buildServer(ctx, cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer s.Close()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("watch", false, "watch files and restart the server on changes")
	// set by the watcher on the child it spawns
	cmd.Flags().Bool("no-watch", false, "(internal) do not start file watcher")
	cmd.Flags().StringSlice("watch-paths", []string{"."}, "paths to watch (comma-separated)")
	cmd.Flags().StringSlice("watch-ignore", []string{".git", "vendor", "node_modules"}, "directory names to skip when watching")
	return cmd
}

// openStore opens the store selected by cfg.Database.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (store.Store, *orm.BunAdapter, error) {
	if cfg.Driver != "sqlite" {
		return store.NewMemory(), nil, nil
	}
	var opts []orm.Option
	if cfg.LogQueries {
		opts = append(opts, orm.WithQueryLogger(logger, slowQuery))
	}
	s, err := store.OpenSQLite(ctx, cfg.DSN, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.DSN, err)
	}
	return s, s.Adapter(), nil
}

// routerOptions maps cfg onto parkes.Options. metrics may be nil.
func routerOptions(cfg *config.Config, logger zerolog.Logger, metrics *parkes.Metrics) parkes.Options {
	opts := parkes.Options{
		PoweredBy: cfg.Router.PoweredBy,
		NoHeaders: cfg.Router.NoHeaders,
		Logger:    logger,
		Metrics:   metrics,
	}
	if cfg.Router.Engine == "chi" {
		opts.Engine = parkes.ChiEngine
	}
	return opts
}

// buildServer assembles the demo API described by cfg. Metrics register on
// reg. The caller closes the returned store.
func buildServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*parkes.App, store.Store, error) {
	s, adapter, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	var metrics *parkes.Metrics
	if cfg.Metrics.Enabled {
		metrics = parkes.NewMetrics(reg)
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	r, err := app.NewRouter(routerOptions(cfg, logger, metrics), s)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	mux.Handle("/", r)

	srv := parkes.New("parkes",
		parkes.WithLogger(logger),
		parkes.WithAddr(cfg.Server.Addr),
		parkes.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout),
		parkes.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		parkes.WithDefaultMiddleware(),
		parkes.WithTimeout(cfg.Server.RequestTimeout),
		parkes.WithBun(adapter),
		parkes.WithRouter(mux),
	)
	return srv, s, nil
}
