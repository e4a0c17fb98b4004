package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/source"
)

var actionsCmd = &cobra.Command{
	Use:          "actions [flags] <file.elm>",
	Short:        "List the code actions available at a position",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runActions,
}

func init() {
	actionsCmd.Flags().Int("line", 1, "1-based line of the position")
	actionsCmd.Flags().Int("col", 1, "1-based column of the position")
	actionsCmd.Flags().Int("end-line", 0, "1-based end line of a range (default: --line)")
	actionsCmd.Flags().Int("end-col", 0, "1-based end column of a range (default: --col)")
	actionsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runActions(cmd *cobra.Command, args []string) error {
	rng, err := rangeFlags(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	p, err := loadProject(cmd, args[0])
	if err != nil {
		return err
	}
	defer p.cleanup()
	doc, err := p.document()
	if err != nil {
		return fmt.Errorf("actions: %w", err)
	}

	actions := p.dispatcher().ComputeActions(cmd.Context(), codeaction.Request{
		URI:         doc.URI,
		Range:       rng,
		Diagnostics: overlapping(doc.Diagnostics, rng),
	})

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(actions)
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	return renderActions(out, actions, colored)
}

// rangeFlags converts the 1-based --line/--col flags into an LSP range.
func rangeFlags(cmd *cobra.Command) (source.Range, error) {
	var vals [4]int
	for i, name := range []string{"line", "col", "end-line", "end-col"} {
		v, err := cmd.Flags().GetInt(name)
		if err != nil {
			return source.Range{}, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		vals[i] = v
	}
	if vals[0] < 1 || vals[1] < 1 {
		return source.Range{}, fmt.Errorf("--line and --col are 1-based")
	}
	if vals[2] == 0 {
		vals[2] = vals[0]
	}
	if vals[3] == 0 {
		vals[3] = vals[1]
	}
	rng := source.Range{
		Start: source.Position{Line: vals[0] - 1, Character: vals[1] - 1},
		End:   source.Position{Line: vals[2] - 1, Character: vals[3] - 1},
	}
	if rng.End.Line < rng.Start.Line || (rng.End.Line == rng.Start.Line && rng.End.Character < rng.Start.Character) {
		return source.Range{}, fmt.Errorf("range end precedes its start")
	}
	return rng, nil
}

// overlapping returns the diagnostics whose range touches rng, the way an
// editor fills the code action context.
func overlapping(diags []diag.Diagnostic, rng source.Range) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diags {
		if d.Range.Contains(rng.Start) || d.Range.Contains(rng.End) || rng.Contains(d.Range.Start) {
			out = append(out, d)
		}
	}
	return out
}

func renderActions(w io.Writer, actions []codeaction.CodeAction, colored bool) error {
	if len(actions) == 0 {
		_, err := fmt.Fprintln(w, "No code actions available.")
		return err
	}
	r := lipgloss.NewRenderer(w)
	frame := r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	title := r.NewStyle().Bold(true)
	dim := r.NewStyle()
	if colored {
		frame = frame.BorderForeground(lipgloss.Color("6"))
		title = title.Foreground(lipgloss.Color("2"))
		dim = dim.Foreground(lipgloss.Color("8"))
	}

	blocks := make([]string, 0, len(actions))
	for i, a := range actions {
		lines := []string{title.Render(fmt.Sprintf("%d. %s", i+1, a.Title))}
		meta := []string{string(a.Kind)}
		if a.ID != "" {
			meta = append(meta, "id "+a.ID)
		}
		if a.IsPreferred {
			meta = append(meta, "preferred")
		}
		lines = append(lines, dim.Render(strings.Join(meta, " · ")))
		if a.Edit != nil {
			for _, uri := range a.Edit.URIs() {
				lines = append(lines, fmt.Sprintf("%s: %d edit(s)", uri, len(a.Edit.Changes[uri])))
			}
		}
		if a.Command != nil {
			lines = append(lines, fmt.Sprintf("command %s", a.Command.Command))
		}
		blocks = append(blocks, frame.Render(strings.Join(lines, "\n")))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}
