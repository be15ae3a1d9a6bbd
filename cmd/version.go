package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via -ldflags "-X github.com/luminnexus/alchemy/cmd.version=..." at release time.
var (
	version = ""
	commit  = ""
	date    = ""
)

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

func buildSetting(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == key {
				return s.Value
			}
		}
	}
	return "unknown"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", appName, getVersion())
		fmt.Fprintf(out, "  commit: %s\n", buildSetting("vcs.revision", commit))
		fmt.Fprintf(out, "  built:  %s\n", buildSetting("vcs.time", date))
		fmt.Fprintf(out, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
