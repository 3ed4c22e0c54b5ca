// Package markup rewrites the editor's inline shorthand (video embeds,
// highlights, premium gates, page links) into the components understood by the
// documentation site.
package markup

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/content"
)

// The editor's pattern language treats these as whitespace; RE2's \s does not.
const (
	space    = `[\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`
	nonSpace = `[^\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`
	lineChar = `[^\n\r\x{2028}\x{2029}]`
)

// Space is the editor's whitespace character class, for patterns outside
// this package that must agree with the markup rules.
const Space = space

// Rule is one rewrite. Literal markup returned by Rewrite is never scanned
// again; captured author text is passed through Match.Translate explicitly.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Rewrite func(m Match) string
	// AtEnd rules only apply at the end of the whole text, never inside
	// captured fragments.
	AtEnd bool
}

// DefaultRules returns the rewrite rules for documents published under path,
// in priority order.
func DefaultRules(path string) []Rule {
	p := regexp.QuoteMeta(path)
	return []Rule{
		{
			Name:    "loom",
			Pattern: regexp.MustCompile(`\{\{(?:\[\[)?video(?:\]\])?:` + space + `*https://www.loom.com/share/([0-9a-f]*)\}\}`),
			Rewrite: func(m Match) string {
				return `<Loom id={"` + m.Translate(m.Group(1)) + `"} />`
			},
		},
		{
			Name:    "youtube",
			Pattern: regexp.MustCompile(`\{\{(?:\[\[)?(?:youtube|video)(?:\]\])?:` + space + `*https://youtu\.be/([\w\d-]*)\}\}`),
			Rewrite: func(m Match) string {
				return `<YouTube id={"` + m.Translate(m.Group(1)) + `"} />`
			},
		},
		{
			Name:    "video",
			Pattern: regexp.MustCompile(`\{\{(?:\[\[)?video(?:\]\])?:` + space + `*(` + nonSpace + `+)` + space + `*\}\}`),
			Rewrite: func(m Match) string {
				return `<DemoVideo src={"` + m.Translate(m.Group(1)) + `"} />`
			},
		},
		{
			Name:    "subpage-link",
			Pattern: regexp.MustCompile(`\[(` + lineChar + `*?)\]\(\[\[` + p + `/(` + lineChar + `*?)\]\]\)`),
			Rewrite: func(m Match) string {
				return "[" + m.Translate(m.Group(1)) + "](/extensions/" + path + "/" + m.Translate(content.NormalizeName(m.Group(2))) + ")"
			},
		},
		{
			Name:    "path-link",
			Pattern: regexp.MustCompile(`\[(` + lineChar + `*?)\]\(\[\[` + p + `\]\]\)`),
			Rewrite: func(m Match) string {
				return "[" + m.Translate(m.Group(1)) + "](/extensions/" + path + ")"
			},
		},
		{
			Name:    "highlight",
			Pattern: regexp.MustCompile(`\^\^(` + lineChar + `*?)\^\^`),
			Rewrite: func(m Match) string {
				return "<Highlight>" + m.Translate(m.Group(1)) + "</Highlight>"
			},
		},
		{
			Name:    "premium",
			Pattern: regexp.MustCompile(`\{\{premium\}\}`),
			Rewrite: func(Match) string { return "<Premium />" },
		},
		{
			Name:    "underscore",
			Pattern: regexp.MustCompile(`__`),
			Rewrite: func(Match) string { return "_" },
		},
		{
			Name:    "nbsp",
			Pattern: regexp.MustCompile(`\x{00A0}`),
			Rewrite: func(Match) string { return " " },
		},
		{
			Name:    "close-fence",
			Pattern: regexp.MustCompile("```$"),
			Rewrite: func(m Match) string { return "\n" + m.Indent + "```" },
			AtEnd:   true,
		},
		{
			Name:    "indent",
			Pattern: regexp.MustCompile(`\n`),
			Rewrite: func(m Match) string { return "\n" + m.Indent },
		},
	}
}

// Indent returns the continuation indent for a rendered line prefix.
func Indent(prefix string) string { return strings.Repeat(" ", len(prefix)) }
