package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/pipeline"
)

var (
	dryRunOnly []string
	dryRunSkip []string
)

var dryRunCmd = &cobra.Command{
	Use:   "dry-run",
	Short: "Show which stale files would be cleared and which steps would run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Select(dryRunOnly, dryRunSkip); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		p := pipeline.DryRun(cfg, collab.Options{})
		if jsonOutput {
			return printJSON(p)
		}

		fmt.Println(titleStyle.Render("Dry-run: " + p.OutputDir))
		fmt.Println()
		if len(p.Stale) == 0 {
			fmt.Println("No stale files to clear.")
		} else {
			fmt.Println("Would clear:")
			for _, f := range p.Stale {
				fmt.Printf("  %s\n", f)
			}
		}
		fmt.Println()
		for _, sp := range p.Steps {
			switch {
			case !sp.Enabled:
				fmt.Printf("%s %s\n", nameColStyle.Render(sp.Name), skipStyle.Render("would skip ("+sp.Flag+"=false)"))
			case sp.LoadError != "":
				fmt.Printf("%s %s %s\n", nameColStyle.Render(sp.Name), failStyle.Render("would fail:"), sp.LoadError)
			default:
				fmt.Printf("%s would run %s\n", nameColStyle.Render(sp.Name), sp.Collaborator)
			}
		}
		fmt.Println()
		if len(p.Cleanup) == 0 {
			fmt.Println("Intermediates would be kept.")
		} else {
			fmt.Printf("After rendering, would remove %d intermediates.\n", len(p.Cleanup))
		}
		fmt.Printf("Dashboard: %s\n", p.Dashboard)
		return nil
	},
}

func init() {
	dryRunCmd.Flags().StringSliceVar(&dryRunOnly, "only", nil, "Consider only these steps or flags")
	dryRunCmd.Flags().StringSliceVar(&dryRunSkip, "skip", nil, "Skip these steps or flags")
	rootCmd.AddCommand(dryRunCmd)
}
