package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/pipeline"
)

var (
	runOnly []string
	runSkip []string
	runKeep bool
	runEnv  []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every enabled step and build the dashboard",
	Long: `Clears stale outputs, runs each enabled analysis step, renders the
dashboard and Markdown report, then removes intermediate files.
Exits 2 when any step failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Select(runOnly, runSkip); err != nil {
			return err
		}
		if cmd.Flags().Changed("keep-intermediates") {
			cfg.Pipeline.KeepIntermediates = runKeep
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		extra, err := parseEnv(runEnv)
		if err != nil {
			return err
		}

		res, err := pipeline.Run(cmd.Context(), cfg, pipeline.Options{
			Logger: logger,
			Collab: collab.Options{ExtraEnv: extra},
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := printJSON(res); err != nil {
				return err
			}
		} else {
			printSummary(os.Stdout, res.Summary, res.Dashboard)
		}
		if res.ExitCode != 0 {
			return &exitError{code: res.ExitCode}
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runOnly, "only", nil, "Run only these steps or flags (comma-separated)")
	f.StringSliceVar(&runSkip, "skip", nil, "Skip these steps or flags (comma-separated)")
	f.BoolVar(&runKeep, "keep-intermediates", false, "Keep intermediate artifacts after the dashboard is built")
	f.StringArrayVar(&runEnv, "env", nil, "Extra environment for collaborators (KEY=VALUE)")
	rootCmd.AddCommand(runCmd)
}
