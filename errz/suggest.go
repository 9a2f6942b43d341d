package errz

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxSuggestions caps how many names a hint lists.
const MaxSuggestions = 3

// Suggestion is a known name and its edit distance from what was typed.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar returns the candidates nearest to target, ignoring case.
// Only the candidates tied at the smallest distance are kept, so a close
// match is never diluted by weaker ones. The tolerated distance grows with
// the length of target, from one edit up to three.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" {
		return nil
	}
	lowered := strings.ToLower(target)
	limit := min(max(utf8.RuneCountInString(target)/3, 1), 3)

	var nearest []Suggestion
	for _, candidate := range candidates {
		if candidate == "" || strings.EqualFold(candidate, target) {
			continue
		}
		d := levenshtein(lowered, strings.ToLower(candidate))
		switch {
		case d > limit:
		case len(nearest) == 0 || d < nearest[0].Distance:
			nearest = append(nearest[:0], Suggestion{Value: candidate, Distance: d})
		case d == nearest[0].Distance:
			nearest = append(nearest, Suggestion{Value: candidate, Distance: d})
		}
	}
	slices.SortFunc(nearest, func(a, b Suggestion) int {
		return cmp.Compare(a.Value, b.Value)
	})
	if len(nearest) > MaxSuggestions {
		nearest = nearest[:MaxSuggestions]
	}
	return nearest
}

// FormatSuggestions renders a "did you mean" hint, or "" when there is
// nothing to suggest.
func FormatSuggestions(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}
	if len(suggestions) == 1 {
		return "did you mean '" + suggestions[0].Value + "'?"
	}
	var sb strings.Builder
	sb.WriteString("did you mean one of: ")
	for i, s := range suggestions {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("'" + s.Value + "'")
	}
	sb.WriteString("?")
	return sb.String()
}

// levenshtein is the edit distance between a and b, counted in runes.
func levenshtein(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	row := make([]int, len(short)+1)
	for i := range row {
		row[i] = i
	}
	for j, lc := range long {
		diag := row[0]
		row[0] = j + 1
		for i, sc := range short {
			above := row[i+1]
			cost := 0
			if sc != lc {
				cost = 1
			}
			row[i+1] = min(above+1, row[i]+1, diag+cost)
			diag = above
		}
	}
	return row[len(short)]
}
