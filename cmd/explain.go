package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/pipeline"
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show each step, its flag, collaborator and expected artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig(cmd)
		if err != nil {
			return err
		}
		plans := pipeline.Explain(cfg, collab.Options{})
		if jsonOutput {
			return printJSON(plans)
		}

		fmt.Println(titleStyle.Render("Steps"))
		fmt.Println()
		for _, sp := range plans {
			state := okStyle.Render("enabled")
			if !sp.Enabled {
				state = skipStyle.Render("disabled")
			}
			fmt.Printf("%s %s\n", nameColStyle.Render(sp.Name), state)
			fmt.Printf("  %s\n", mutedStyle.Render(sp.Title))
			fmt.Printf("  Flag: %s\n", sp.Flag)
			if sp.Collaborator != "" {
				fmt.Printf("  Collaborator: %s\n", sp.Collaborator)
			}
			if sp.LoadError != "" {
				fmt.Printf("  %s %s\n", failStyle.Render("Load error:"), sp.LoadError)
			}
			for _, a := range sp.Artifacts {
				fmt.Printf("  -> %s\n", a)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
