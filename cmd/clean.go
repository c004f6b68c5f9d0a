package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/artifact"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove known artifacts from the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig(cmd)
		if err != nil {
			return err
		}
		known := artifact.Known(cfg)
		preserve := artifact.PreRunPreserve()

		var freed uint64
		for _, p := range artifact.Stale(known, preserve) {
			if info, err := os.Stat(p); err == nil {
				freed += uint64(info.Size())
			}
		}
		removed, err := artifact.ClearStale(known, preserve)
		if jsonOutput {
			out := map[string]any{"removed": removed, "freed_bytes": freed}
			if err != nil {
				out["error"] = err.Error()
			}
			if perr := printJSON(out); perr != nil {
				return perr
			}
			return err
		}
		fmt.Printf("Removed %d file(s), %s freed.\n", removed, humanize.Bytes(freed))
		return err
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
