package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luminnexus/alchemy/internal/tablerender"
)

var tableCmd = &cobra.Command{
	Use:   "table [file|-]",
	Short: "Renders the rows of an HTML table as a terminal table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		markup, err := readInput(cmd, path)
		if err != nil {
			return err
		}

		out := tablerender.Render(markup)
		if out == "" {
			return errors.New("no table rows found")
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
}
