package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"elmls/internal/diagfmt"
	"elmls/internal/lexer"
	"elmls/internal/source"
	"elmls/internal/syntax"
)

var parseCmd = &cobra.Command{
	Use:          "parse [flags] <file.elm>",
	Short:        "Print the syntax tree or the tokens of a file",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runParse,
}

func init() {
	parseCmd.Flags().Bool("tokens", false, "print tokens instead of the syntax tree")
	parseCmd.Flags().String("format", "pretty", "token output format (pretty|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	tokens, err := cmd.Flags().GetBool("tokens")
	if err != nil {
		return fmt.Errorf("failed to get tokens flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	content, flags := source.Normalize(raw)
	file := source.NewFile(source.PathToURI(path), content, flags)
	out := cmd.OutOrStdout()

	if tokens {
		toks := lexer.New(file).All()
		if format == "json" {
			return diagfmt.FormatTokensJSON(out, toks, file)
		}
		return diagfmt.FormatTokensPretty(out, toks, file)
	}

	tree := syntax.Parse(file)
	if err := syntax.Dump(out, tree); err != nil {
		return err
	}
	for _, e := range tree.Errors {
		pos := file.Position(e.Span.Start)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: %s\n", args[0], pos.Line+1, pos.Character+1, e.Msg)
	}
	if n := len(tree.Errors); n > 0 {
		return fmt.Errorf("parse: %d syntax error(s)", n)
	}
	return nil
}
