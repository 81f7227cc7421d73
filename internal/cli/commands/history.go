package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/leapstack-labs/songplays/internal/cli/output"
	"github.com/leapstack-labs/songplays/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long:  `List the most recent runs recorded in the state store, newest first.`,
		Example: `  songplays history
  songplays history --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutTarget(cmd)

			// Listing must not create a state file as a side effect.
			if _, err := os.Stat(cc.Cfg.StatePath); os.IsNotExist(err) {
				return renderHistory(cc.Renderer, nil)
			}

			store, err := openHistory(cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderHistory(cc.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")

	return cmd
}

func renderHistory(r *output.Renderer, runs []*core.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*core.Run{}
		}
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}

	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []any{
			id,
			run.Target,
			string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			runDuration(run),
			runSummary(run),
		})
	}
	r.Table([]string{"Run", "Target", "Status", "Started", "Duration", "Tables"}, rows)
	return nil
}

func runDuration(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

// runSummary lists inserted/rows per table, or the error of a failed run.
func runSummary(run *core.Run) string {
	if run.Status == core.RunStatusFailed && run.Error != "" {
		return "error: " + run.Error
	}
	var b strings.Builder
	for i, t := range run.Tables {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d/%d", t.Table, t.Inserted, t.Rows)
	}
	return b.String()
}
