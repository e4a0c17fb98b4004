package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"elmls/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "elmls",
	Short: "Elm language server and code-action toolkit",
	Long:  `elmls serves diagnostics and code actions for Elm projects over LSP and from the command line`,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = from elmls.toml)")
	rootCmd.PersistentFlags().String("trace", "", "trace level (off|error|request|document|debug)")
	rootCmd.PersistentFlags().String("trace-output", "", "trace output file (default stderr, .ndjson for JSON lines)")
	rootCmd.PersistentFlags().Bool("timings", false, "print phase timings to stderr")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// main executes the root command; any error exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
