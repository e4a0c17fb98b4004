package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"elmls/internal/version"
)

var versionCmd = &cobra.Command{
	Use:          "version",
	Short:        "Show elmls build information",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit, message, build date and Go version")
}

// versionPayload is the JSON shape of `elmls version`.
type versionPayload struct {
	Tool string `json:"tool"`
	version.Info
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}

	info := version.Current()
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		if !full {
			info = version.Info{Version: info.Version, GoVersion: info.GoVersion}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(versionPayload{Tool: "elmls", Info: info})
	case "pretty":
		colored, err := useColor(cmd)
		if err != nil {
			return err
		}
		return renderVersion(out, info, version.Colored(colored), full)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func renderVersion(w io.Writer, info version.Info, colored string, full bool) error {
	if _, err := fmt.Fprintf(w, "elmls %s\n", colored); err != nil {
		return err
	}
	if !full {
		return nil
	}
	for _, row := range [][2]string{
		{"commit", info.GitCommit},
		{"message", info.GitMessage},
		{"built", info.BuildDate},
		{"go", info.GoVersion},
	} {
		value := row[1]
		if value == "" {
			value = "unknown"
		}
		if _, err := fmt.Fprintf(w, "%-8s %s\n", row[0]+":", value); err != nil {
			return err
		}
	}
	return nil
}
