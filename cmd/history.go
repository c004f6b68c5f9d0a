package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the history store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig(cmd)
		if err != nil {
			return err
		}
		hs, err := history.Open(cmd.Context(), cfg)
		if errors.Is(err, history.ErrDisabled) {
			return fmt.Errorf("run history is disabled; set history.driver in %s", configPath)
		}
		if err != nil {
			return err
		}
		defer hs.Close()

		runs, err := hs.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		for _, r := range runs {
			status := okStyle.Render("ok")
			if r.ExitCode != 0 {
				status = failStyle.Render(fmt.Sprintf("exit %d", r.ExitCode))
			}
			fmt.Printf("%s  %s  %6.2fs  %s  %s\n",
				mutedStyle.Render(r.StartedAt), r.RunID, r.DurationSeconds, status,
				mutedStyle.Render(fmt.Sprintf("%d ok / %d failed / %d skipped", r.Succeeded, r.Failed, r.Skipped)))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
