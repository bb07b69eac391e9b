package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/bulk"
)

type snapshotOptions struct {
	*RootOptions
	Bucket string
	Key    string
	Action string
}

func (o *snapshotOptions) bucket(b *Backend) string {
	if o.Bucket != "" {
		return o.Bucket
	}
	return b.SnapshotBucket
}

func newInspectCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	opts := &snapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a stored work order snapshot",
		Long: `Show the initiator, keys and options of a stored work order snapshot.

Examples:
  bulkctl inspect --key bulk/3f2a...json
  bulkctl inspect --key bulk/3f2a...json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts.RootOptions, connect, func(ctx context.Context, b *Backend, out *Output) error {
				bucket := opts.bucket(b)
				wo, err := b.Runner.LoadWorkOrder(ctx, bucket, opts.Key)
				if err != nil {
					return snapshotError(out, err)
				}
				return out.Success(workOrderResult{
					Bucket: bucket,
					Key:    opts.Key,
					UserID: wo.UserID,
					Keys:   wo.Keys,
					Opts:   wo.Opts,
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "snapshot key (required)")
	_ = cmd.MarkFlagRequired("key")
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "snapshot bucket (default: bulk.snapshot_bucket)")
	return cmd
}

func newReplayCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	opts := &snapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a stored work order synchronously",
		Long: `Replay a stored work order in this process, inside one transaction, and
print the resulting process log. The snapshot is deleted on success and kept
when the replay aborts, so a failed replay can be retried.

Exit codes:
  0 - The replay committed
  2 - The replay aborted or the snapshot was not found

Examples:
  bulkctl replay --key bulk/3f2a...json --action "Bulk Comment"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts.RootOptions, connect, func(ctx context.Context, b *Backend, out *Output) error {
				if _, err := b.Runner.Registry().Lookup(opts.Action); err != nil {
					_ = out.Error("UNKNOWN_ACTION", err.Error())
					return WrapExitError(ExitCommandError, "unknown action", err)
				}
				log, err := b.Runner.RunSnapshot(ctx, opts.bucket(b), opts.Key, opts.Action)
				if err != nil {
					return snapshotError(out, err)
				}
				return out.Success(newProcessLogResult(log, true))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "snapshot key (required)")
	_ = cmd.MarkFlagRequired("key")
	cmd.Flags().StringVar(&opts.Action, "action", "", "bulk action type (required)")
	_ = cmd.MarkFlagRequired("action")
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "snapshot bucket (default: bulk.snapshot_bucket)")
	return cmd
}

func snapshotError(out *Output, err error) error {
	code := "REPLAY_FAILED"
	if errors.Is(err, bulkapp.ErrSnapshotNotFound) {
		code = "SNAPSHOT_NOT_FOUND"
	}
	_ = out.Error(code, err.Error())
	return WrapExitError(ExitCommandError, "snapshot command failed", err)
}

type actionTypesResult struct {
	Types []string `json:"types"`
}

func (r actionTypesResult) renderText(w io.Writer) {
	for _, t := range r.Types {
		fmt.Fprintln(w, t)
	}
}

type workOrderResult struct {
	Bucket string       `json:"bucket"`
	Key    string       `json:"key"`
	UserID uuid.UUID    `json:"user_id"`
	Keys   []string     `json:"keys"`
	Opts   bulk.Options `json:"opts"`
}

func (r workOrderResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "Snapshot:  %s/%s\n", r.Bucket, r.Key)
	fmt.Fprintf(w, "User:      %s\n", r.UserID)
	fmt.Fprintf(w, "Keys (%d):\n", len(r.Keys))
	for i, k := range r.Keys {
		fmt.Fprintf(w, "  %4d  %s\n", i+1, k)
	}
	if len(r.Opts) == 0 {
		return
	}
	names := make([]string, 0, len(r.Opts))
	for name := range r.Opts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Options:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s = %v\n", name, r.Opts[name])
	}
}

type changeRecordResult struct {
	Sequence int      `json:"record_sequence_number"`
	Type     string   `json:"record_type"`
	ID       string   `json:"record_id"`
	Failed   bool     `json:"failed"`
	Messages []string `json:"messages"`
}

type processLogResult struct {
	ID            uuid.UUID            `json:"id"`
	UserID        uuid.UUID            `json:"user_id"`
	ActionType    string               `json:"action_type"`
	SnapshotKey   string               `json:"snapshot_key,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Succeeded     int                  `json:"succeeded"`
	Failed        int                  `json:"failed"`
	ChangeRecords []changeRecordResult `json:"change_records,omitempty"`
}

func newProcessLogResult(log *bulk.ProcessLog, withRecords bool) processLogResult {
	r := processLogResult{
		ID:          log.ID,
		UserID:      log.UserID,
		ActionType:  log.ActionType,
		SnapshotKey: log.SnapshotKey,
		StartedAt:   log.StartedAt,
		CompletedAt: log.CompletedAt,
		Succeeded:   log.SucceededCount(),
		Failed:      log.FailedCount(),
	}
	if withRecords {
		r.ChangeRecords = make([]changeRecordResult, 0, len(log.ChangeRecords))
		for _, cr := range log.ChangeRecords {
			r.ChangeRecords = append(r.ChangeRecords, changeRecordResult{
				Sequence: cr.RecordSequenceNumber,
				Type:     cr.Recordable.Type,
				ID:       cr.Recordable.ID,
				Failed:   cr.Failed,
				Messages: cr.Messages,
			})
		}
	}
	return r
}

func (r processLogResult) status() string {
	if r.CompletedAt == nil {
		return "running"
	}
	return "completed"
}

func (r processLogResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "Process log %s (%s)\n", r.ID, r.status())
	fmt.Fprintf(w, "  Action:    %s\n", r.ActionType)
	fmt.Fprintf(w, "  User:      %s\n", r.UserID)
	fmt.Fprintf(w, "  Started:   %s\n", r.StartedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		fmt.Fprintf(w, "  Completed: %s\n", r.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  Succeeded: %d  Failed: %d\n", r.Succeeded, r.Failed)
	for _, cr := range r.ChangeRecords {
		outcome := "ok"
		if cr.Failed {
			outcome = "FAILED"
		}
		fmt.Fprintf(w, "  %4d  %-6s %s %s\n", cr.Sequence, outcome, cr.Type, cr.ID)
		for _, msg := range cr.Messages {
			fmt.Fprintf(w, "        %s\n", msg)
		}
	}
}
