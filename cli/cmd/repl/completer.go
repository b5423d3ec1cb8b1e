package repl

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/htmpl/tmpl"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "data", "set", "edit", "clear", "quit"}

// refSep separates the segments of a variable path.
const refSep = "->"

func isKeyByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// refBounds locates the variable path under the cursor. It reports the
// path segments before the current one, the current (partial) segment, and
// that segment's byte boundaries within input. ok is false if the cursor
// is not inside a "$" reference.
func refBounds(input string, cursor int) (parent []string, word string, start, end int, ok bool) {
	cursor = min(max(cursor, 0), len(input))

	// Walk backward over key bytes and separators to the '$'.
	dollar := cursor
	for dollar > 0 && (isKeyByte(input[dollar-1]) || input[dollar-1] == '>') {
		dollar--
	}

	if dollar == 0 || input[dollar-1] != '$' {
		return nil, "", cursor, cursor, false
	}

	path := input[dollar:cursor]

	start = dollar
	if i := strings.LastIndex(path, refSep); i >= 0 {
		parent = strings.Split(path[:i], refSep)
		start = dollar + i + len(refSep)
	}

	// Walk forward to the end of the current segment.
	end = cursor
	for end < len(input) && isKeyByte(input[end]) &&
		!strings.HasPrefix(input[end:], refSep) {
		end++
	}

	return parent, input[start:end], start, end, true
}

// childCandidates returns the keys reachable one step below parent in
// vars. Sequences offer their indices.
func childCandidates(vars *tmpl.Map, parent []string) []string {
	var v any = vars

	for _, key := range parent {
		var ok bool
		if v, ok = child(v, key); !ok {
			return nil
		}
	}

	return childKeys(v)
}

func child(v any, key string) (any, bool) {
	switch v := v.(type) {
	case *tmpl.Map:
		return v.Get(key)

	case map[string]any:
		c, ok := v[key]

		return c, ok

	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}

		return v[i], true

	default:
		return nil, false
	}
}

func childKeys(v any) []string {
	switch v := v.(type) {
	case *tmpl.Map:
		return v.Keys()

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		return keys

	case []any:
		keys := make([]string, len(v))
		for i := range v {
			keys[i] = strconv.Itoa(i)
		}

		return keys

	default:
		return nil
	}
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first, along with the word boundaries. In eval mode
// only variable paths complete; an empty segment right after "$" or "->"
// lists every child so the user can browse.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()
	cursor := m.input.Position()

	switch m.mode {
	case modeCtrl:
		word := strings.TrimPrefix(input[:min(cursor, len(input))], ":")
		if word == "" || strings.ContainsAny(word, " \t") {
			return nil, cursor, cursor
		}

		wordStart = cursor - len(word)
		wordEnd = cursor

		return fuzzy.Find(word, ctrlCommands), wordStart, wordEnd

	default:
		parent, word, start, end, ok := refBounds(input, cursor)
		if !ok {
			return nil, cursor, cursor
		}

		candidates := childCandidates(m.data, parent)
		if len(candidates) == 0 {
			return nil, start, end
		}

		if word == "" {
			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, start, end
		}

		return fuzzy.Find(word, candidates), start, end
	}
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit within width.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	used := 0

	var b strings.Builder

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += lipgloss.Width(sep)
		}

		if i > 0 && used+entryWidth+lipgloss.Width(ellipsis) > width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, highlightStyle
	if selected {
		base, highlight = selectedStyle, selectedHighlightStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
