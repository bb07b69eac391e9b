// Command bulkctl inspects and replays bulk work orders and reads process logs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradecomply/backend/internal/bootstrap"
	"github.com/tradecomply/backend/internal/cli"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(connect)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

// connect wires the full application. Logs go to stderr so stdout stays
// parseable in json format.
func connect(ctx context.Context, opts *cli.RootOptions) (*cli.Backend, error) {
	cfg, err := config.LoadFrom(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.Log.Output = "stderr"
	cfg.Log.Format = "console"
	cfg.Log.Level = "warn"
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &cli.Backend{
		Runner:         app.Runner,
		Logs:           app.ProcessLogs,
		SnapshotBucket: cfg.Bulk.SnapshotBucket,
		Close: func(ctx context.Context) error {
			defer func() { _ = log.Sync() }()
			return app.Close(ctx)
		},
	}, nil
}
