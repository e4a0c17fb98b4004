package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/afero"

	"elmls/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
}

// Change is one applicable code action as seen by the engine.
type Change struct {
	ID        string
	Title     string
	Preferred bool
	// FixAll marks aggregated actions; they are never picked in once mode.
	FixAll bool
	Edit   WorkspaceEdit
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID        string
	Title     string
	EditCount int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	change Change
	order  int
}

// Apply selects a subset of changes according to opts and writes them to fs.
// Changes conflicting with an already applied one are skipped.
func Apply(fs afero.Fs, changes []Change, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if fs == nil {
		return result, fmt.Errorf("fix: filesystem is nil")
	}

	candidates := make([]candidate, 0, len(changes))
	for i, ch := range changes {
		if ch.Edit.Empty() {
			result.Skipped = append(result.Skipped, SkippedFix{ID: ch.ID, Title: ch.Title, Reason: "fix has no edits"})
			continue
		}
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("fix-%d", i)
		}
		candidates = append(candidates, candidate{change: ch, order: i})
	}
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skipped, fileChanges, err := applyCandidates(fs, selected)
	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, skipped...)
	result.FileChanges = append(result.FileChanges, fileChanges...)
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.change.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{
			ID:     opts.TargetID,
			Reason: "fix id not found",
		}}
	case ApplyModeAll:
		// aggregated actions first so that their single-fix twins are
		// skipped as conflicts instead of the other way round
		selected := append([]candidate(nil), candidates...)
		sort.SliceStable(selected, func(i, j int) bool {
			if selected[i].change.FixAll != selected[j].change.FixAll {
				return selected[i].change.FixAll
			}
			return selected[i].order < selected[j].order
		})
		return selected, nil
	case ApplyModeOnce:
		var fallback *candidate
		skipped := make([]SkippedFix, 0)
		for i := range candidates {
			cand := candidates[i]
			if cand.change.FixAll {
				skipped = append(skipped, SkippedFix{
					ID:     cand.change.ID,
					Title:  cand.change.Title,
					Reason: "fix-all actions are applied with --all",
				})
				continue
			}
			if cand.change.Preferred {
				return []candidate{cand}, skipped
			}
			if fallback == nil {
				fallback = &cand
			}
		}
		if fallback != nil {
			return []candidate{*fallback}, skipped
		}
		return nil, skipped
	default:
		return nil, nil
	}
}

type fileState struct {
	path     string
	original *source.File
	working  []byte
	applied  []spanEdit
	edits    int
}

func applyCandidates(fs afero.Fs, selected []candidate) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	files := make(map[string]*fileState)
	applied := make([]AppliedFix, 0, len(selected))
	skipped := make([]SkippedFix, 0)

	load := func(uri string) (*fileState, error) {
		if st, ok := files[uri]; ok {
			return st, nil
		}
		path := source.URIToPath(uri)
		if path == "" {
			return nil, fmt.Errorf("unsupported document %s", uri)
		}
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, err
		}
		st := &fileState{
			path:     path,
			original: source.NewFile(uri, content, 0),
			working:  append([]byte(nil), content...),
		}
		files[uri] = st
		return st, nil
	}

	for _, cand := range selected {
		staged := make(map[string][]byte)
		stagedApplied := make(map[string][]spanEdit)
		total := 0
		var skipReason string

		for _, uri := range cand.change.Edit.URIs() {
			st, err := load(uri)
			if err != nil {
				skipReason = fmt.Sprintf("cannot read %s: %v", uri, err)
				break
			}
			edits := cand.change.Edit.Changes[uri]
			if err := Validate(edits); err != nil {
				skipReason = err.Error()
				break
			}
			resolved := resolveEdits(st.original, edits)
			if conflictsWithExisting(st.applied, resolved) {
				skipReason = fmt.Sprintf("conflicts with previously applied edits in %s", st.path)
				break
			}

			sort.SliceStable(resolved, func(i, j int) bool {
				if resolved[i].span.Start != resolved[j].span.Start {
					return resolved[i].span.Start > resolved[j].span.Start
				}
				return resolved[i].order > resolved[j].order
			})

			working := append([]byte(nil), st.working...)
			existing := append([]spanEdit(nil), st.applied...)
			for _, edit := range resolved {
				start := int(edit.span.Start) + cumulativeDelta(existing, int(edit.span.Start))
				end := int(edit.span.End) + cumulativeDelta(existing, int(edit.span.End))
				if start < 0 || end < start || end > len(working) {
					skipReason = "edit span out of range"
					break
				}
				suffix := append([]byte(nil), working[end:]...)
				working = append(append(working[:start], edit.text...), suffix...)
			}
			if skipReason != "" {
				break
			}
			for _, edit := range resolved {
				existing = insertEditSorted(existing, edit)
			}
			staged[uri] = working
			stagedApplied[uri] = existing
			total += len(edits)
		}

		if skipReason != "" {
			skipped = append(skipped, SkippedFix{
				ID:     cand.change.ID,
				Title:  cand.change.Title,
				Reason: skipReason,
			})
			continue
		}

		for uri, buf := range staged {
			st := files[uri]
			st.working = buf
			st.applied = stagedApplied[uri]
			st.edits += len(cand.change.Edit.Changes[uri])
		}
		applied = append(applied, AppliedFix{
			ID:        cand.change.ID,
			Title:     cand.change.Title,
			EditCount: total,
		})
	}

	if len(applied) == 0 {
		return applied, skipped, nil, nil
	}

	uris := make([]string, 0, len(files))
	for uri, st := range files {
		if st.edits > 0 {
			uris = append(uris, uri)
		}
	}
	sort.Strings(uris)

	fileChanges := make([]FileChange, 0, len(uris))
	for _, uri := range uris {
		st := files[uri]
		mode := os.FileMode(0o644)
		if info, err := fs.Stat(st.path); err == nil {
			mode = info.Mode()
		}
		if err := afero.WriteFile(fs, st.path, st.working, mode); err != nil {
			return applied, skipped, fileChanges, fmt.Errorf("write %s: %w", st.path, err)
		}
		fileChanges = append(fileChanges, FileChange{Path: st.path, EditCount: st.edits})
	}
	return applied, skipped, fileChanges, nil
}

func conflictsWithExisting(existing, edits []spanEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev.span, cand.span) {
				return true
			}
		}
	}
	return false
}

// cumulativeDelta is the length change that applied edits ending at or
// before pos have introduced; existing is sorted by start.
func cumulativeDelta(edits []spanEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.span.End)
		if eEnd <= pos {
			delta += len(e.text) - (eEnd - eStart)
		}
	}
	return delta
}

func insertEditSorted(edits []spanEdit, edit spanEdit) []spanEdit {
	idx := sort.Search(len(edits), func(i int) bool {
		if edits[i].span.Start == edit.span.Start {
			return edits[i].span.End >= edit.span.End
		}
		return edits[i].span.Start > edit.span.Start
	})
	edits = append(edits, spanEdit{})
	copy(edits[idx+1:], edits[idx:])
	edits[idx] = edit
	return edits
}
