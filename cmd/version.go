package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/kamusis/taskcap-cli/cmd.version=..." at release time.
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var flagVersionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show taskcap version and build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&flagVersionShort, "short", false, "Print the version number only")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	if flagVersionShort {
		fmt.Fprintln(stdout, version)
		return nil
	}
	fmt.Fprintf(stdout, "Version:      %s\n", version)
	fmt.Fprintf(stdout, "Commit:       %s\n", emptyAsNA(vcsCommit()))
	fmt.Fprintf(stdout, "Build Date:   %s\n", emptyAsNA(buildDate))
	fmt.Fprintf(stdout, "Go Version:   %s\n", runtime.Version())
	fmt.Fprintf(stdout, "OS/Arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(stdout, "Index Format: v%d\n", index.IndexVersion)
	return nil
}

// vcsCommit falls back to the revision stamped by the go tool when -ldflags did not set one.
func vcsCommit() string {
	if commit != "" {
		return commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
