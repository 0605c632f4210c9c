package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/config"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/state"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent task invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}
			path := settings.HistoryDB
			if path == "" {
				path = state.DefaultPath()
			}
			hist, err := state.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()

			entries, err := hist.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no recorded runs")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWORKFLOW\tSTATUS\tEXIT\tFINISHED\tARTIFACT")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
					e.ID, orDash(e.WorkflowID), e.Status, e.ExitCode,
					e.EndedAt.Format(time.RFC3339), orDash(e.ArtifactPath))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
