package analysis

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// MaxSuggestionDistance bounds the edit distance of "did you mean" names.
const MaxSuggestionDistance = 2

// Suggest returns up to limit candidates close to name, closest first and
// then alphabetically. A candidate is never a full rewrite of name.
func Suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name string
		dist int
	}
	nameRunes := []rune(name)
	var found []scored
	seen := map[string]bool{}
	for _, c := range candidates {
		if c == name || seen[c] {
			continue
		}
		seen[c] = true
		dist := levenshtein.DistanceForStrings(nameRunes, []rune(c), levenshtein.DefaultOptions)
		if dist <= MaxSuggestionDistance && dist < len([]rune(c)) && dist < len(nameRunes) {
			found = append(found, scored{name: c, dist: dist})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].name < found[j].name
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.name)
	}
	return out
}
