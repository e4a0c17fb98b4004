package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"elmls/internal/fix"
)

var moveCmd = &cobra.Command{
	Use:          "move [flags] <file.elm> <name> <Module>",
	Short:        "Move a top-level function into another module",
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
	RunE:         runMove,
}

func init() {
	moveCmd.Flags().Bool("preview", false, "print the edits without modifying files")
}

func runMove(cmd *cobra.Command, args []string) error {
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return err
	}
	name, module := args[1], args[2]

	p, err := loadProject(cmd, args[0])
	if err != nil {
		return err
	}
	defer p.cleanup()

	doc, err := p.document()
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	dst, ok := p.forest.SnapshotByModule(module)
	if !ok {
		return fmt.Errorf("move: unknown module %s", module)
	}
	edit, ok := fix.MoveDeclaration(doc.Tree, dst.Tree, name)
	if !ok {
		return fmt.Errorf("move: cannot move %s from %s to %s", name, doc.Module(), module)
	}
	change := fix.Change{
		ID:    "move_function",
		Title: fmt.Sprintf("Move %s to %s", name, module),
		Edit:  edit,
	}
	return applyChanges(cmd, p, []fix.Change{change}, fix.ApplyOptions{Mode: fix.ApplyModeAll}, preview)
}
