package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/shared"
)

type logsListOptions struct {
	*RootOptions
	Action    string
	User      string
	Completed string
	Page      int
	PageSize  int
}

func (o *logsListOptions) filter() (bulk.ProcessLogFilter, error) {
	filter := bulk.ProcessLogFilter{ActionType: o.Action}
	if o.User != "" {
		id, err := uuid.Parse(o.User)
		if err != nil {
			return filter, fmt.Errorf("invalid --user %q: %w", o.User, err)
		}
		filter.UserID = &id
	}
	switch o.Completed {
	case "":
	case "true", "false":
		completed := o.Completed == "true"
		filter.Completed = &completed
	default:
		return filter, fmt.Errorf("invalid --completed %q: must be true or false", o.Completed)
	}
	return filter, nil
}

func newLogsCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Read bulk process logs",
	}
	cmd.AddCommand(newLogsListCommand(rootOpts, connect))
	cmd.AddCommand(newLogsShowCommand(rootOpts, connect))
	return cmd
}

func newLogsListCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	opts := &logsListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List process logs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid filter", err)
			}
			return withBackend(cmd, opts.RootOptions, connect, func(ctx context.Context, b *Backend, out *Output) error {
				result, err := b.Logs.List(ctx, filter, opts.Page, opts.PageSize)
				if err != nil {
					_ = out.Error("LIST_FAILED", err.Error())
					return WrapExitError(ExitCommandError, "failed to list process logs", err)
				}
				page := logPageResult{
					Items:    make([]processLogResult, 0, len(result.Items)),
					Total:    result.TotalCount,
					Page:     result.Page,
					PageSize: result.PageSize,
				}
				for _, log := range result.Items {
					page.Items = append(page.Items, newProcessLogResult(log, false))
				}
				return out.Success(page)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "only logs of this action type")
	cmd.Flags().StringVar(&opts.User, "user", "", "only logs initiated by this user id")
	cmd.Flags().StringVar(&opts.Completed, "completed", "", "only completed (true) or running (false) logs")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "logs per page")
	return cmd
}

func newLogsShowCommand(rootOpts *RootOptions, connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one process log with its change records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid process log id", err)
			}
			return withBackend(cmd, rootOpts, connect, func(ctx context.Context, b *Backend, out *Output) error {
				log, err := b.Logs.Get(ctx, id)
				if errors.Is(err, shared.ErrNotFound) {
					_ = out.Error("NOT_FOUND", fmt.Sprintf("process log %s not found", id))
					return WrapExitError(ExitFailure, "process log not found", err)
				}
				if err != nil {
					_ = out.Error("GET_FAILED", err.Error())
					return WrapExitError(ExitCommandError, "failed to read process log", err)
				}
				return out.Success(newProcessLogResult(log, true))
			})
		},
	}
}

type logPageResult struct {
	Items    []processLogResult `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func (r logPageResult) renderText(w io.Writer) {
	if len(r.Items) == 0 {
		fmt.Fprintln(w, "No process logs found")
		return
	}
	for _, item := range r.Items {
		fmt.Fprintf(w, "%s  %-9s  %-18s  ok=%d failed=%d  %s\n",
			item.ID, item.status(), item.ActionType, item.Succeeded, item.Failed,
			item.StartedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Page %d, %d of %d logs\n", r.Page, len(r.Items), r.Total)
}
