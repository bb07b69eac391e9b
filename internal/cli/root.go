// Package cli implements bulkctl, the operator tool for inspecting and
// replaying stored work orders and reading process logs.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/bulk"
)

// ValidFormats lists the accepted --format values
var ValidFormats = []string{"text", "json"}

// RootOptions holds the global flags
type RootOptions struct {
	ConfigFile string
	Format     string
	Verbose    bool
}

// Runner is the part of the bulk runner bulkctl drives
type Runner interface {
	Registry() *bulkapp.Registry
	LoadWorkOrder(ctx context.Context, bucket, key string) (*bulk.WorkOrder, error)
	RunSnapshot(ctx context.Context, bucket, key, actionType string) (*bulk.ProcessLog, error)
}

// ProcessLogReader reads stored process logs
type ProcessLogReader interface {
	Get(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error)
	List(ctx context.Context, filter bulk.ProcessLogFilter, page, pageSize int) (*bulk.ProcessLogListResult, error)
}

// Backend is what a command needs from a connected application
type Backend struct {
	Runner         Runner
	Logs           ProcessLogReader
	SnapshotBucket string
	Close          func(ctx context.Context) error
}

// Connector opens a Backend for the given global options
type Connector func(ctx context.Context, opts *RootOptions) (*Backend, error)

// NewRootCommand creates the bulkctl root command. connect is called lazily
// by each subcommand.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bulkctl",
		Short: "Operate the bulk action runner",
		Long: `bulkctl inspects and replays work order snapshots and reads the
process logs of completed bulk runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to config.toml (default: search the usual locations)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(newActionTypesCommand(opts, connect))
	cmd.AddCommand(newInspectCommand(opts, connect))
	cmd.AddCommand(newReplayCommand(opts, connect))
	cmd.AddCommand(newLogsCommand(opts, connect))

	return cmd
}

// withBackend connects, runs fn and closes the backend again
func withBackend(cmd *cobra.Command, opts *RootOptions, connect Connector, fn func(ctx context.Context, b *Backend, out *Output) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := connect(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	if backend.Close != nil {
		defer func() { _ = backend.Close(context.Background()) }()
	}
	return fn(ctx, backend, &Output{Format: opts.Format, Writer: cmd.OutOrStdout()})
}

func newActionTypesCommand(opts *RootOptions, connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "action-types",
		Short: "List the registered bulk action types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, connect, func(_ context.Context, b *Backend, out *Output) error {
				return out.Success(actionTypesResult{Types: b.Runner.Registry().Types()})
			})
		},
	}
}
