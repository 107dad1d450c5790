package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/ui"
	"github.com/PolarWolf314/storjcli/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logBucket    string
	logSince     string
	logUntil     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logOperation, "op", "", "filter by operation (comma-separated)")
	logCmd.Flags().StringVar(&logBucket, "bucket", "", "filter by bucket name or id")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries on or after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries on or before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the local audit log",
	Long: `Displays the audit log of uploads, downloads and removals made from this
data directory.

Examples:
  storjcli log                          # View full log
  storjcli log -n 10 --reverse          # 10 most recent entries
  storjcli log --op upload,download     # Filter by operation
  storjcli log --bucket photos          # Filter by bucket
  storjcli log --since 2024-01-01       # Filter by date
  storjcli log --json                   # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	spinner, cleanup := startSpinner(cmd, "Loading audit log...")
	defer cleanup()

	result, err := workflows.History(context.Background(), workflows.HistoryOptions{
		DataDir:    settings.DataDir,
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
		Bucket:     logBucket,
		Since:      logSince,
		Until:      logUntil,
	})
	if err != nil {
		return fail(&spinner.FinalMSG, err)
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No audit log entries found."
		} else {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No audit log entries found matching the filters."
		}
		return nil
	}

	spinner.Stop()
	if logJSON {
		return outputLogJSON(cmd.OutOrStdout(), result.Entries)
	}
	outputLogDefault(cmd.OutOrStdout(), result.Entries)
	return nil
}

func outputLogJSON(w io.Writer, entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputLogDefault(w io.Writer, entries []audit.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", workflows.FormatDateTime(e.Timestamp), e.User, e.Operation, workflows.FormatDetails(e))
	}
	_ = tw.Flush()
}
