package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/open-sauced/docs-digest/pkg/diffs"
	"github.com/open-sauced/docs-digest/pkg/sections"
)

// HeadingAdded matches a new heading. A heading whose text is within
// maxDistance edits of a removed heading is a rename, not a new section.
func HeadingAdded(maxDistance int) Rule {
	return Rule{
		Name: "heading-added",
		Match: func(c *Change) (string, bool) {
			added, removed := changedHeadings(c.Diff)
			for _, a := range added {
				renamed := false
				for _, r := range removed {
					if editDistance(strings.ToLower(a), strings.ToLower(r)) <= maxDistance {
						renamed = true
						break
					}
				}
				if !renamed {
					return fmt.Sprintf("added heading %q", a), true
				}
			}
			return "", false
		},
	}
}

// CodeBlockAdded matches a diff adding more code fences than it removes.
func CodeBlockAdded() Rule {
	return Rule{
		Name: "code-block-added",
		Match: func(c *Change) (string, bool) {
			if countFences(c.Added) > countFences(c.Removed) {
				return "added code block", true
			}
			return "", false
		},
	}
}

var linkTargetRegex = regexp.MustCompile(`\]\(\s*([^)\s]+)[^)]*\)|href=["']([^"']+)["']`)

// LinkTargetAdded matches a link to a target the diff did not remove.
func LinkTargetAdded() Rule {
	return Rule{
		Name: "link-target-added",
		Match: func(c *Change) (string, bool) {
			removed := make(map[string]bool)
			for _, t := range linkTargets(c.Removed) {
				removed[t] = true
			}
			for _, t := range linkTargets(c.Added) {
				if !removed[t] {
					return fmt.Sprintf("added link to %s", t), true
				}
			}
			return "", false
		},
	}
}

// WordDelta matches a net word count change of at least threshold words.
func WordDelta(threshold int) Rule {
	return Rule{
		Name: "word-delta",
		Match: func(c *Change) (string, bool) {
			delta := countWords(c.Added) - countWords(c.Removed)
			if delta < 0 {
				delta = -delta
			}
			if threshold > 0 && delta >= threshold {
				return fmt.Sprintf("net word delta %d", delta), true
			}
			return "", false
		},
	}
}

// EmptyDiff matches a diff that changes no line, e.g. a pure rename.
func EmptyDiff() Rule {
	return Rule{
		Name: "empty-diff",
		Match: func(c *Change) (string, bool) {
			if len(c.Added) == 0 && len(c.Removed) == 0 {
				return "no content change", true
			}
			return "", false
		},
	}
}

// WhitespaceOnly matches changes that only add, remove or move whitespace.
func WhitespaceOnly() Rule {
	return Rule{
		Name: "whitespace-only",
		Match: func(c *Change) (string, bool) {
			if stripSpace(strings.Join(c.Added, "")) == stripSpace(strings.Join(c.Removed, "")) {
				return "whitespace only", true
			}
			return "", false
		},
	}
}

var frontMatterKey = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*:`)

// FrontMatterOnly matches diffs whose changed lines all sit in the page
// front matter under one of the given metadata keys.
func FrontMatterOnly(keys []string) Rule {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}

	return Rule{
		Name: "front-matter-only",
		Match: func(c *Change) (string, bool) {
			changed := false
			for _, h := range c.Diff.Hunks {
				ok, hunkChanged := frontMatterHunk(h, allowed)
				if !ok {
					return "", false
				}
				changed = changed || hunkChanged
			}
			if !changed {
				return "", false
			}
			return "front matter metadata only", true
		},
	}
}

// frontMatterHunk reports whether every changed line of h is an allowed
// front matter field, and whether h changes anything at all.
func frontMatterHunk(h diffs.Hunk, allowed map[string]bool) (bool, bool) {
	changed := false
	for _, l := range h.Lines {
		if l.Op != diffs.Context {
			changed = true
		}
	}
	if !changed {
		return true, false
	}

	if h.NewStart > 1 || h.OrigStart > 1 || len(h.Lines) == 0 {
		return false, true
	}
	if h.Lines[0].Op != diffs.Context || strings.TrimSpace(h.Lines[0].Text) != "---" {
		return false, true
	}

	key := ""
	closed := false
	for _, l := range h.Lines[1:] {
		if closed {
			if l.Op != diffs.Context {
				return false, true
			}
			continue
		}
		if l.Op == diffs.Context && strings.TrimSpace(l.Text) == "---" {
			closed = true
			continue
		}
		if m := frontMatterKey.FindStringSubmatch(l.Text); m != nil {
			key = m[1]
		}
		if l.Op != diffs.Context && !allowed[key] {
			return false, true
		}
	}

	return true, true
}

var (
	listMarker = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
	markup     = regexp.MustCompile("(\\*\\*|__|\\*|_|~~|`)")
	linkRegex  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
)

// FormattingOnly matches changes to emphasis, code spans or list markers
// that leave the text itself alone.
func FormattingOnly() Rule {
	return Rule{
		Name: "formatting-only",
		Match: func(c *Change) (string, bool) {
			strip := func(lines []string) string {
				var b strings.Builder
				for _, l := range lines {
					l = listMarker.ReplaceAllString(l, "")
					b.WriteString(markup.ReplaceAllString(l, ""))
				}
				return stripSpace(b.String())
			}
			if strip(c.Added) == strip(c.Removed) {
				return "formatting markup only", true
			}
			return "", false
		},
	}
}

// LinkTextOnly matches changes that only reword the text of links.
func LinkTextOnly() Rule {
	return Rule{
		Name: "link-text-only",
		Match: func(c *Change) (string, bool) {
			if !linkRegex.MatchString(strings.Join(c.Added, "\n")) {
				return "", false
			}
			strip := func(lines []string) string {
				return stripSpace(linkRegex.ReplaceAllString(strings.Join(lines, ""), "($2)"))
			}
			if strip(c.Added) == strip(c.Removed) {
				return "link text only", true
			}
			return "", false
		},
	}
}

// SpellingOnly matches modified lines that differ from the line they
// replace by at most maxDistance character edits, or by punctuation only.
// A line whose changed words carry a number or flip a negation is never a
// spelling fix, however small the edit.
func SpellingOnly(maxDistance int) Rule {
	return Rule{
		Name: "spelling-only",
		Match: func(c *Change) (string, bool) {
			runs := c.Diff.Runs()
			if len(runs) == 0 {
				return "", false
			}

			worst := 0
			for _, run := range runs {
				if len(run.Added) != len(run.Removed) {
					return "", false
				}
				for i := range run.Added {
					a, r := run.Added[i], run.Removed[i]
					if changesMeaning(a, r) {
						return "", false
					}
					if stripPunct(a) == stripPunct(r) {
						continue
					}
					d := editDistance(a, r)
					if d > maxDistance {
						return "", false
					}
					if d > worst {
						worst = d
					}
				}
			}

			return fmt.Sprintf("spelling or punctuation only (max edit distance %d)", worst), true
		},
	}
}

// Boilerplate matches diffs whose non blank changed lines all match one of
// the patterns.
func Boilerplate(patterns []*regexp.Regexp) Rule {
	return Rule{
		Name: "boilerplate",
		Match: func(c *Change) (string, bool) {
			if len(patterns) == 0 {
				return "", false
			}

			matched := 0
			for _, l := range append(append([]string{}, c.Added...), c.Removed...) {
				if strings.TrimSpace(l) == "" {
					continue
				}
				if !matchesAny(patterns, l) {
					return "", false
				}
				matched++
			}

			if matched == 0 {
				return "", false
			}
			return "boilerplate lines only", true
		},
	}
}

// SubjectHint matches commits whose subject marks them as low value,
// e.g. "Fix typo in cache docs".
func SubjectHint(patterns []*regexp.Regexp) Rule {
	return Rule{
		Name: "subject-hint",
		Match: func(c *Change) (string, bool) {
			for _, p := range patterns {
				if c.Subject != "" && p.MatchString(c.Subject) {
					return fmt.Sprintf("commit subject matches %q", p.String()), true
				}
			}
			return "", false
		},
	}
}

var negations = map[string]bool{
	"not":    true,
	"no":     true,
	"never":  true,
	"cannot": true,
	"none":   true,
}

var negatingPrefixes = []string{"dis", "non", "un"}

// changesMeaning compares the words of a modified line with the words of the
// line it replaces. Changed words holding digits, a different number of
// negations, or a negating prefix gained or lost all change meaning.
func changesMeaning(added, removed string) bool {
	a, r := changedWords(strings.Fields(added), strings.Fields(removed))

	for _, w := range append(append([]string{}, a...), r...) {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			return true
		}
	}

	if countNegations(a) != countNegations(r) {
		return true
	}

	if len(a) == len(r) {
		for i := range a {
			if negatingPrefix(a[i]) != negatingPrefix(r[i]) {
				return true
			}
		}
	}

	return false
}

// changedWords returns the words only found on one side, in order. Words
// are compared with surrounding punctuation removed.
func changedWords(added, removed []string) (a, r []string) {
	inAdded := make(map[string]int)
	inRemoved := make(map[string]int)
	for _, w := range added {
		inAdded[normalizeWord(w)]++
	}
	for _, w := range removed {
		inRemoved[normalizeWord(w)]++
	}

	for _, w := range added {
		if n := normalizeWord(w); n != "" {
			if inRemoved[n] > 0 {
				inRemoved[n]--
			} else {
				a = append(a, n)
			}
		}
	}
	for _, w := range removed {
		if n := normalizeWord(w); n != "" {
			if inAdded[n] > 0 {
				inAdded[n]--
			} else {
				r = append(r, n)
			}
		}
	}
	return a, r
}

func normalizeWord(w string) string {
	w = strings.ReplaceAll(strings.ToLower(w), "’", "'")
	return strings.TrimFunc(w, func(r rune) bool {
		return unicode.IsPunct(r) && r != '\''
	})
}

func countNegations(words []string) int {
	n := 0
	for _, w := range words {
		if negations[w] || strings.HasSuffix(w, "n't") {
			n++
		}
	}
	return n
}

func negatingPrefix(w string) string {
	for _, p := range negatingPrefixes {
		if strings.HasPrefix(w, p) && len(w) > len(p)+2 {
			return p
		}
	}
	return ""
}

func changedHeadings(fd diffs.FileDiff) (added, removed []string) {
	for _, h := range fd.Hunks {
		code := sections.CodeLines(h)
		for i, l := range h.Lines {
			if code[i] || l.Op == diffs.Context || sections.IsFence(l.Text) {
				continue
			}
			_, text, ok := sections.ParseHeading(l.Text)
			if !ok {
				continue
			}
			if l.Op == diffs.Added {
				added = append(added, text)
			} else {
				removed = append(removed, text)
			}
		}
	}
	return added, removed
}

func countFences(lines []string) int {
	n := 0
	for _, l := range lines {
		if sections.IsFence(l) {
			n++
		}
	}
	return n
}

func linkTargets(lines []string) []string {
	var targets []string
	for _, l := range lines {
		for _, m := range linkTargetRegex.FindAllStringSubmatch(l, -1) {
			if m[1] != "" {
				targets = append(targets, m[1])
			} else if m[2] != "" {
				targets = append(targets, m[2])
			}
		}
	}
	return targets
}

func countWords(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(strings.Fields(l))
	}
	return n
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// editDistance is the Levenshtein distance between a and b in characters.
func editDistance(a, b string) int {
	dmp := diffmatchpatch.New()
	return dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
}
