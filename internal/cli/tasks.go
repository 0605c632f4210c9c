package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/runner"
)

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List registered tasks and their metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(runner.Config{}, nil, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDISPLAY NAME\tDESCRIPTION")
			for _, name := range reg.Names() {
				r, _ := reg.Get(name)
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Metadata.DisplayName, r.Metadata.Description)
			}
			return w.Flush()
		},
	}
}
