package markup

import (
	"strings"
	"unicode/utf8"
)

// Match is the state handed to a Rule's rewrite.
type Match struct {
	groups []string
	// Indent is the whitespace continuation lines are indented with.
	Indent string
	t      *Translator
}

// Group returns submatch i, or "" when it did not participate.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.groups) {
		return ""
	}
	return m.groups[i]
}

// Translate applies the rules to a captured fragment of author text.
func (m Match) Translate(s string) string {
	return m.t.translate(s, m.Indent, false)
}

// Translator applies an ordered list of rules in a single left-to-right pass.
// At each position the leftmost match wins; equal starts go to the earlier rule.
// When an earlier rule matches from inside the leftmost match and runs past its
// end, the earlier rule is applied first and only later rules may match across
// its output.
type Translator struct {
	rules []Rule
}

// New returns a Translator for rules, kept in the given priority order.
func New(rules []Rule) *Translator {
	return &Translator{rules: rules}
}

// ForPath returns a Translator with the default rules for path.
func ForPath(path string) *Translator {
	return New(DefaultRules(path))
}

// Rules returns the rule names in priority order.
func (t *Translator) Rules() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// Translate rewrites text for a block rendered behind linePrefix. Continuation
// lines are indented to the width of linePrefix.
func (t *Translator) Translate(text, linePrefix string) string {
	return t.translate(text, Indent(linePrefix), true)
}

// Translate is a convenience for ForPath(path).Translate(text, linePrefix).
func Translate(text, linePrefix, path string) string {
	return ForPath(path).Translate(text, linePrefix)
}

func (t *Translator) translate(text, indent string, whole bool) string {
	var (
		b       strings.Builder
		spliced []span
	)
	pos := 0
	for pos < len(text) {
		i, loc := t.next(text, pos, whole, spliced)
		if i < 0 {
			b.WriteString(text[pos:])
			break
		}
		if h, hloc := t.crossing(text, i, loc, whole, spliced); h >= 0 {
			out := t.rewrite(h, text, hloc, indent)
			text, spliced = splice(text, spliced, hloc[0], hloc[1], out, h)
			continue
		}
		b.WriteString(text[pos:loc[0]])
		b.WriteString(t.rewrite(i, text, loc, indent))
		pos = loc[1]
	}
	return b.String()
}

func (t *Translator) rewrite(i int, text string, loc []int, indent string) string {
	groups := make([]string, len(loc)/2)
	for g := range groups {
		if loc[2*g] >= 0 {
			groups[g] = text[loc[2*g]:loc[2*g+1]]
		}
	}
	return t.rules[i].Rewrite(Match{groups: groups, Indent: indent, t: t})
}

// next finds the leftmost non-empty match at or after pos. Equal starts go to
// the earlier rule.
func (t *Translator) next(text string, pos int, whole bool, spliced []span) (int, []int) {
	best, bestLoc := -1, []int(nil)
	for i := range t.rules {
		if t.rules[i].AtEnd && !whole {
			continue
		}
		loc := t.find(i, text, pos, spliced)
		if loc != nil && (best < 0 || loc[0] < bestLoc[0]) {
			best, bestLoc = i, loc
		}
	}
	return best, bestLoc
}

// crossing returns the earliest rule before i with a match that starts inside
// loc and ends past it, or -1.
func (t *Translator) crossing(text string, i int, loc []int, whole bool, spliced []span) (int, []int) {
	for h := 0; h < i; h++ {
		if t.rules[h].AtEnd && !whole {
			continue
		}
		for from := loc[0] + 1; from < loc[1]; {
			m := t.find(h, text, from, spliced)
			if m == nil || m[0] >= loc[1] {
				break
			}
			if m[1] > loc[1] {
				return h, m
			}
			from = m[0] + 1
		}
	}
	return -1, nil
}

// find returns the first non-empty match of rule i at or after from, in
// absolute offsets, skipping matches that touch output the rule may not see.
func (t *Translator) find(i int, text string, from int, spliced []span) []int {
	re := t.rules[i].Pattern
	for from <= len(text) {
		loc := re.FindStringSubmatchIndex(text[from:])
		if loc == nil {
			return nil
		}
		for k := range loc {
			if loc[k] >= 0 {
				loc[k] += from
			}
		}
		if loc[0] != loc[1] && !blocked(i, loc[0], loc[1], spliced) {
			return loc
		}
		_, size := utf8.DecodeRuneInString(text[loc[0]:])
		from = loc[0] + max(size, 1)
	}
	return nil
}

// span is rewritten output spliced back into the text. Only rules after rank
// may match across it.
type span struct {
	start, end int
	rank       int
}

func blocked(rule, start, end int, spliced []span) bool {
	for _, sp := range spliced {
		if rule <= sp.rank && start < sp.end && end > sp.start {
			return true
		}
	}
	return false
}

// splice replaces text[a:b] with out and shifts the recorded spans to match.
func splice(text string, spliced []span, a, b int, out string, rank int) (string, []span) {
	delta := len(out) - (b - a)
	next := make([]span, 0, len(spliced)+1)
	for _, sp := range spliced {
		if sp.start < a {
			next = append(next, span{start: sp.start, end: min(sp.end, a), rank: sp.rank})
		}
		if sp.end > b {
			next = append(next, span{start: max(sp.start, b) + delta, end: sp.end + delta, rank: sp.rank})
		}
	}
	next = append(next, span{start: a, end: a + len(out), rank: rank})
	return text[:a] + out + text[b:], next
}
