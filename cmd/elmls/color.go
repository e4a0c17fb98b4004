package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// useColor resolves --color against the terminal and NO_COLOR.
func useColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		out, ok := cmd.OutOrStdout().(*os.File)
		return ok && isTerminal(out), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (must be auto, on or off)", mode)
	}
}
