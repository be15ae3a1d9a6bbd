package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luminnexus/alchemy/internal/htmlmd"
	"github.com/luminnexus/alchemy/internal/logging"
	"github.com/luminnexus/alchemy/internal/scraper"
	"github.com/luminnexus/alchemy/internal/usage"
)

const appName = "alchemy"

var (
	cfgFile string
	logger  = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Alchemy converts scraped HTML into Markdown and terminal tables.",
	Long: `Alchemy turns HTML pages, fragments and database columns into Markdown,
renders HTML tables for the terminal, serves the converters over MCP and
reports Claude subscription usage.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/alchemy/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	setDefaults()
}

func setDefaults() {
	def := htmlmd.DefaultConfig()
	viper.SetDefault("conversion.preserve_structure", def.PreserveStructure)
	viper.SetDefault("conversion.preserve_tables", def.PreserveTables)
	viper.SetDefault("conversion.preserve_links", def.PreserveLinks)
	viper.SetDefault("conversion.heading_style", def.HeadingStyle)
	viper.SetDefault("conversion.link_style", def.LinkStyle)
	viper.SetDefault("conversion.bullet_marker", def.BulletMarker)
	viper.SetDefault("conversion.code_block_style", def.CodeBlockStyle)
	viper.SetDefault("conversion.fence_char", def.FenceChar)
	viper.SetDefault("conversion.emphasis_marker", def.EmphasisMarker)

	fetch := scraper.DefaultConfig()
	viper.SetDefault("fetch.user_agent", fetch.UserAgent)
	viper.SetDefault("fetch.timeout", fetch.Timeout)
	viper.SetDefault("fetch.request_delay", fetch.RequestDelay)
	viper.SetDefault("fetch.max_concurrent", fetch.MaxConcurrent)
	viper.SetDefault("fetch.max_body_bytes", fetch.MaxBodyBytes)

	viper.SetDefault("usage.endpoint", usage.DefaultEndpoint)

	viper.SetDefault("db", filepath.Join(xdg.DataHome, appName, appName+".db"))
}

func initConfig() {
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	path := cfgFile
	if path == "" {
		path = filepath.Join(xdg.ConfigHome, appName, "config.yaml")
	}
	viper.SetConfigFile(path)

	readErr := viper.ReadInConfig()
	logger = logging.New(os.Stderr, viper.GetBool("verbose"))

	switch {
	case readErr == nil:
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	case cfgFile == "" && errors.Is(readErr, os.ErrNotExist):
	default:
		logger.Warn("failed to read config file", "path", path, "error", readErr)
	}
}

// conversionConfig builds the converter config from the config file,
// environment and defaults.
func conversionConfig() (htmlmd.Config, error) {
	cfg := htmlmd.DefaultConfig()
	if err := viper.UnmarshalKey("conversion", &cfg); err != nil {
		return cfg, fmt.Errorf("invalid conversion config: %w", err)
	}
	return cfg, cfg.Validate()
}

func fetchConfig() (*scraper.Config, error) {
	cfg := scraper.DefaultConfig()
	if err := viper.UnmarshalKey("fetch", cfg); err != nil {
		return nil, fmt.Errorf("invalid fetch config: %w", err)
	}
	return cfg, nil
}

// readInput returns the contents of path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
