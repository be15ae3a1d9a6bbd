package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luminnexus/alchemy/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Shows Claude subscription usage for the 5-hour and 7-day windows",
	Long: `Shows Claude subscription usage for the 5-hour and 7-day windows.

The OAuth token is taken from --token, ALCHEMY_USAGE_TOKEN, the macOS
keychain or ~/.claude/.credentials.json, in that order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := usage.FormatPretty
		switch {
		case mustBool(cmd, "json"):
			format = usage.FormatJSON
		case mustBool(cmd, "simple"):
			format = usage.FormatSimple
		case mustBool(cmd, "markdown"):
			format = usage.FormatMarkdown
		}

		creds, err := usage.DefaultCredentials()
		if err != nil {
			logger.Debug("no local credentials lookup", "error", err)
		}
		token, err := usage.ResolveToken(cmd.Context(), viper.GetString("usage.token"), creds)
		if err != nil {
			return err
		}

		client := usage.NewClient(token,
			usage.WithEndpoint(viper.GetString("usage.endpoint")),
			usage.WithLogger(logger),
		)
		report, err := client.Fetch(cmd.Context())
		if err != nil {
			return err
		}
		return usage.Write(cmd.OutOrStdout(), report, format, time.Now())
	},
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().StringP("token", "t", "", "OAuth access token")
	usageCmd.Flags().BoolP("json", "j", false, "Print the raw API response")
	usageCmd.Flags().BoolP("simple", "s", false, "Print plain text without colors")
	usageCmd.Flags().BoolP("markdown", "m", false, "Print a Markdown table")
	usageCmd.MarkFlagsMutuallyExclusive("json", "simple", "markdown")
	viper.BindPFlag("usage.token", usageCmd.Flags().Lookup("token"))
}
