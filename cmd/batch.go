package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luminnexus/alchemy/internal/api"
	"github.com/luminnexus/alchemy/internal/htmlmd"
	"github.com/luminnexus/alchemy/internal/storage"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Converts an HTML column of a SQLite table and stores the Markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := viper.GetString("db")
		tableName, _ := cmd.Flags().GetString("table")
		idColumn, _ := cmd.Flags().GetString("id-column")
		htmlColumn, _ := cmd.Flags().GetString("html-column")
		engineName, _ := cmd.Flags().GetString("engine")
		selector, _ := cmd.Flags().GetString("selector")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := conversionConfig()
		if err != nil {
			return err
		}
		if err := applyConversionFlags(cmd, &cfg); err != nil {
			return err
		}
		engine, err := htmlmd.NewEngine(engineName, cfg, htmlmd.WithLogger(logger))
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("failed to create db directory: %w", err)
		}
		st, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		runner := api.NewAPI(st, engine, engineName, logger)
		summary, err := runner.ConvertTable(cmd.Context(), api.BatchOptions{
			Query: storage.SourceQuery{
				Table:      tableName,
				IDColumn:   idColumn,
				HTMLColumn: htmlColumn,
				Limit:      limit,
			},
			Selector: selector,
		})
		if err != nil {
			return err
		}

		writeBatchSummary(cmd, tableName, summary)
		return nil
	},
}

func writeBatchSummary(cmd *cobra.Command, tableName string, s *api.BatchSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Batch: " + tableName)
	t.AppendHeader(table.Row{"Total", "Converted", "Skipped", "Failed"})
	t.AppendRow(table.Row{s.Total, s.Converted, s.Skipped, s.Failed})
	t.Render()

	if len(s.Failures) == 0 {
		return
	}
	f := table.NewWriter()
	f.SetOutputMirror(cmd.OutOrStdout())
	f.SetStyle(table.StyleLight)
	f.AppendHeader(table.Row{"Source ID", "Error"})
	for _, failure := range s.Failures {
		f.AppendRow(table.Row{failure.SourceID, failure.Error})
	}
	f.Render()
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addConversionFlags(batchCmd)
	batchCmd.Flags().String("db", "", "SQLite database path (default is $XDG_DATA_HOME/alchemy/alchemy.db)")
	batchCmd.Flags().String("table", "", "Table holding the HTML rows")
	batchCmd.Flags().String("id-column", "id", "Column identifying each row")
	batchCmd.Flags().String("html-column", "html", "Column holding the HTML")
	batchCmd.Flags().StringP("engine", "e", htmlmd.EnginePasses, "Conversion engine: passes or library")
	batchCmd.Flags().StringP("selector", "s", "", "CSS selector applied to every row")
	batchCmd.Flags().Int("limit", 0, "Maximum number of rows to convert (0 converts all)")
	batchCmd.MarkFlagRequired("table")
	viper.BindPFlag("db", batchCmd.Flags().Lookup("db"))
}
