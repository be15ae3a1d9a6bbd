package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luminnexus/alchemy/internal/core"
	"github.com/luminnexus/alchemy/internal/scraper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the MCP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		httpAddress := viper.GetString("http-address")

		cfg, err := conversionConfig()
		if err != nil {
			return err
		}
		fetchCfg, err := fetchConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := core.New(cfg, scraper.New(fetchCfg), logger)
		server := c.NewServer(getVersion())
		if httpAddress != "" {
			return c.ServeHTTP(ctx, server, httpAddress)
		}
		return c.ServeStdio(ctx, server)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("http-address", "", "Serve the streamable HTTP transport on this address instead of stdio")
	viper.BindPFlag("http-address", serveCmd.Flags().Lookup("http-address"))
}
