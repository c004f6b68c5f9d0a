package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err == nil {
			err = config.Validate(cfg)
		}
		if err != nil {
			if jsonOutput {
				printJSON(map[string]any{"valid": false, "error": err.Error()})
			} else {
				fmt.Fprintf(os.Stderr, "Validation failed: %s\n", err)
			}
			return &exitError{code: 1}
		}
		if jsonOutput {
			return printJSON(map[string]any{"valid": true})
		}
		fmt.Println("Config is valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
