package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/upf/internal/cli"
	"github.com/alexanderramin/upf/internal/config"
	"github.com/alexanderramin/upf/internal/db"
	"github.com/alexanderramin/upf/internal/importer"
	"github.com/alexanderramin/upf/internal/logging"
	"github.com/alexanderramin/upf/internal/pipeline"
	"github.com/alexanderramin/upf/internal/repository"
	"github.com/alexanderramin/upf/internal/server"
	"github.com/alexanderramin/upf/internal/service"
	"github.com/alexanderramin/upf/internal/stats"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; UPF_* variables may come from the shell.
	_ = godotenv.Load()

	var database *sql.DB
	defer func() {
		if database != nil {
			database.Close()
		}
	}()

	app := &cli.App{Version: version}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	app.Init = func(cfg config.Config) error {
		logger, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		counters := &stats.Counters{}
		sinks := []stats.Sink{counters}
		var prom *stats.PrometheusSink
		if cfg.Metrics.Enabled {
			prom, err = stats.NewPrometheusSink(false)
			if err != nil {
				return fmt.Errorf("registering metrics: %w", err)
			}
			sinks = append(sinks, prom)
		}

		templateStart, err := cfg.Convert.TemplateStartTime()
		if err != nil {
			return err
		}
		conv := pipeline.New(
			pipeline.WithSink(stats.Multi(sinks...)),
			pipeline.WithLogger(logger),
			pipeline.WithSniffPrefix(cfg.Convert.SniffPrefix),
			pipeline.WithDecoderOptions(importer.Options{TemplateStart: templateStart}),
		)

		opts := []service.Option{
			service.WithLogger(logger),
			service.WithObserver(service.NewLogObserver(logger)),
		}
		if cfg.History.Enabled {
			database, err = db.OpenDB(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			opts = append(opts, service.WithHistory(
				db.NewSQLiteUnitOfWork(database),
				repository.NewSQLiteConversionRepo(database),
			))
		}
		app.Conversions = service.NewConversionService(conv, opts...)

		app.Serve = func(ctx context.Context, serverCfg config.ServerConfig) error {
			srvOpts := []server.Option{server.WithLogger(logger), server.WithVersion(version)}
			if prom != nil {
				srvOpts = append(srvOpts, server.WithMetrics(cfg.Metrics.Path, prom.Handler()))
			}
			err := server.New(serverCfg, app.Conversions, srvOpts...).Run(ctx)
			snap := counters.Snapshot()
			logger.Info("server stopped",
				"conversions", snap.Total(),
				"succeeded", snap.Succeeded,
				"failed", snap.Failed,
				"elapsed_ms", snap.ElapsedMs)
			return err
		}
		return nil
	}

	return cli.NewRootCmd(app).Execute()
}
