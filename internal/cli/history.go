package cli

import (
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tool invocations",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	entries, err := historyStore.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println(faintStyle.Render("no invocations recorded"))
		return nil
	}

	for _, entry := range entries {
		outcome := okStyle.Render("ok")
		if !entry.OK {
			outcome = errStyle.Render(entry.ErrorKind)
		}
		cmd.Printf("%s  %-4s %-28s %-8s %s\n",
			entry.InvokedAt.Local().Format("2006-01-02 15:04:05"),
			entry.Profile,
			entry.Tool,
			entry.Duration,
			outcome,
		)
	}
	return nil
}
