package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"elmls/internal/codeaction"
	"elmls/internal/diag"
	"elmls/internal/diagfmt"
	"elmls/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:          "fix [flags] <file.elm|directory>",
	Short:        "Apply available fixes to a source file or directory",
	Long:         "Compute the quick fixes of every diagnostic and apply them according to the chosen strategy.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all fixes, fix-all actions first")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply the first fix with a specific identifier")
	fixCmd.Flags().Bool("preview", false, "print the edits without modifying files")
}

func runFix(cmd *cobra.Command, args []string) error {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	// ids name providers, so they only single out a fix within one file
	if info.IsDir() && targetID != "" {
		return fmt.Errorf("fix: id can only be used with a single file")
	}

	p, err := loadProject(cmd, args[0])
	if err != nil {
		return err
	}
	defer p.cleanup()

	changes := collectFixes(cmd, p)
	return applyChanges(cmd, p, changes, opts, preview)
}

// collectFixes asks for the actions of every diagnostic of every target
// document, one request per diagnostic like an editor would. Refactors and
// duplicates of the same fix-all action are dropped.
func collectFixes(cmd *cobra.Command, p *project) []fix.Change {
	d := p.dispatcher()
	seen := map[string]bool{}
	var actions []codeaction.CodeAction
	for _, doc := range p.targets() {
		for _, dg := range doc.Diagnostics {
			for _, a := range d.ComputeActions(cmd.Context(), codeaction.Request{
				URI:         doc.URI,
				Range:       dg.Range,
				Diagnostics: []diag.Diagnostic{dg},
			}) {
				if a.Kind != codeaction.KindQuickFix && a.Kind != codeaction.KindSourceFixAll {
					continue
				}
				key := a.ID + "\x00" + a.Title
				if a.IsFixAll() && seen[key] {
					continue
				}
				seen[key] = true
				actions = append(actions, a)
			}
		}
	}
	return codeaction.Changes(actions)
}

// applyChanges runs the apply engine on disk, or on an in-memory layer over
// the disk when previewing.
func applyChanges(cmd *cobra.Command, p *project, changes []fix.Change, opts fix.ApplyOptions, preview bool) error {
	fsys := p.fs
	if preview {
		fsys = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(p.fs), afero.NewMemMapFs())
	}
	res, applyErr := fix.Apply(fsys, changes, opts)
	out := cmd.OutOrStdout()
	if preview && res != nil {
		if err := printPreview(cmd, out, p, changes, res.Applied); err != nil {
			return err
		}
	}
	return handleApplyResult(out, res, applyErr, preview)
}

func printPreview(cmd *cobra.Command, out io.Writer, p *project, changes []fix.Change, applied []fix.AppliedFix) error {
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	opts := diagfmt.PrettyOpts{Color: colored, BaseDir: p.cfg.Root}
	used := make([]bool, len(changes))
	for _, a := range applied {
		for i, ch := range changes {
			if used[i] || ch.ID != a.ID || ch.Title != a.Title {
				continue
			}
			used[i] = true
			for _, uri := range ch.Edit.URIs() {
				doc, err := p.forest.Document(uri)
				if err != nil {
					return err
				}
				if err := diagfmt.PrettyEdits(out, doc.Tree.File, ch.Title, ch.Edit.Changes[uri], opts); err != nil {
					return err
				}
			}
			break
		}
	}
	return nil
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, preview bool) error {
	if res == nil {
		return applyErr
	}
	verb := "Applied"
	if preview {
		verb = "Would apply"
	}

	if len(res.Applied) > 0 {
		if _, err := fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied)); err != nil {
			return err
		}
		for _, item := range res.Applied {
			if _, err := fmt.Fprintf(out, "  %s [%s] (%d edits)\n", item.Title, item.ID, item.EditCount); err != nil {
				return err
			}
		}
	}

	if len(res.FileChanges) > 0 && !preview {
		if _, err := fmt.Fprintln(out, "Updated files:"); err != nil {
			return err
		}
		for _, change := range res.FileChanges {
			if _, err := fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount); err != nil {
				return err
			}
		}
	}

	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintln(out, "Skipped fixes:"); err != nil {
			return err
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			var err error
			if skip.Title != "" {
				_, err = fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				_, err = fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
			if err != nil {
				return err
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, err := fmt.Fprintln(out, "No applicable fixes found.")
			return err
		}
		return applyErr
	}
	return nil
}
