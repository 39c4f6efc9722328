// package sections finds the document sections a diff touches by looking at
// markdown heading lines in and around each hunk.
//
// This is a best effort approximation: a hunk only carries a few lines of
// context, so a change far below its heading is attributed to no section,
// and headings are recognised by their line prefix alone.
package sections

import (
	"regexp"
	"strings"

	"github.com/open-sauced/docs-digest/pkg/diffs"
)

var (
	headingRegex  = regexp.MustCompile(`^(#{2,6})\s+(.+?)\s*$`)
	closingHashes = regexp.MustCompile(`\s+#+$`)
	anchorRegex   = regexp.MustCompile(`\s*\{#[^}]*\}`)
	linkRegex     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	htmlTagRegex  = regexp.MustCompile(`</?[A-Za-z][^>]*>`)
	emphasisRegex = regexp.MustCompile("(\\*\\*|__|\\*|~~|`)")
)

// ParseHeading returns the level and plain text of a level 2 to 6 ATX
// heading line. Level 1 headings are skipped: pages carry their title in
// front matter and "# " lines are mostly shell comments in code samples.
func ParseHeading(line string) (int, string, bool) {
	m := headingRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}

	text := StripMarkup(m[2])
	if text == "" {
		return 0, "", false
	}
	return len(m[1]), text, true
}

// StripMarkup removes inline markdown from heading text: closing hashes,
// custom anchors, links, html tags, emphasis and code spans.
func StripMarkup(text string) string {
	text = closingHashes.ReplaceAllString(text, "")
	text = anchorRegex.ReplaceAllString(text, "")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = htmlTagRegex.ReplaceAllString(text, "")
	text = emphasisRegex.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// IsFence reports whether line opens or closes a fenced code block.
func IsFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// fenceInfo returns the info string of a fence line, e.g. "bash" for
// "```bash". Only opening fences carry one.
func fenceInfo(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "`~"))
}

// CodeLines reports, for every line of h, whether it sits inside a fenced
// code block. Context and added lines are tracked on the new side of the
// hunk, removed lines on the old side, so a fence rewritten in place
// toggles each side once.
func CodeLines(h diffs.Hunk) []bool {
	out := make([]bool, len(h.Lines))
	newIn := startsInFence(h, diffs.Added)
	oldIn := startsInFence(h, diffs.Removed)

	for i, l := range h.Lines {
		fence := IsFence(l.Text)
		switch l.Op {
		case diffs.Added:
			out[i] = newIn
			if fence {
				newIn = !newIn
			}
		case diffs.Removed:
			out[i] = oldIn
			if fence {
				oldIn = !oldIn
			}
		default:
			out[i] = newIn
			if fence {
				newIn = !newIn
				oldIn = !oldIn
			}
		}
	}

	return out
}

// startsInFence guesses whether one side of h begins inside a code block
// opened above the hunk. That is the case when the first fence of the side
// is bare, no heading precedes it, and it cannot be an opening fence: the
// side has an odd number of fences or the next fence carries an info
// string.
func startsInFence(h diffs.Hunk, side diffs.Op) bool {
	var fences []string
	headingFirst := false

	for _, l := range h.Lines {
		if l.Op != diffs.Context && l.Op != side {
			continue
		}
		if IsFence(l.Text) {
			fences = append(fences, l.Text)
			continue
		}
		if len(fences) == 0 {
			if _, _, ok := ParseHeading(l.Text); ok {
				headingFirst = true
			}
		}
	}

	if len(fences) == 0 || headingFirst || fenceInfo(fences[0]) != "" {
		return false
	}
	return len(fences)%2 == 1 || fenceInfo(fences[1]) != ""
}

// Extract returns the sections touched by the unified diff text, without
// duplicates, in the order they are first seen.
func Extract(text string) []string {
	return ExtractDiff(diffs.Parse(text))
}

// ExtractDiff is Extract over an already parsed diff.
//
// Within each hunk a changed line is attributed to the nearest heading above
// it in the hunk (context or added). Added headings are sections in their
// own right. Removed headings only count when the hunk adds none, so a
// renamed heading reports its new name only.
func ExtractDiff(fd diffs.FileDiff) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, h := range fd.Hunks {
		for _, name := range hunkSections(h) {
			add(name)
		}
	}

	return out
}

type touched struct {
	name    string
	removed bool
}

func hunkSections(h diffs.Hunk) []string {
	var (
		found   []touched
		current string
		addsAny bool
	)

	code := CodeLines(h)
	for i, l := range h.Lines {
		if IsFence(l.Text) {
			if l.Op != diffs.Context && current != "" {
				found = append(found, touched{name: current})
			}
			continue
		}

		if _, heading, ok := ParseHeading(l.Text); ok && !code[i] {
			switch l.Op {
			case diffs.Added:
				addsAny = true
				current = heading
				found = append(found, touched{name: heading})
			case diffs.Removed:
				found = append(found, touched{name: heading, removed: true})
			default:
				current = heading
			}
			continue
		}

		if l.Op != diffs.Context && current != "" && strings.TrimSpace(l.Text) != "" {
			found = append(found, touched{name: current})
		}
	}

	names := make([]string, 0, len(found))
	for _, t := range found {
		if t.removed && addsAny {
			continue
		}
		names = append(names, t.name)
	}
	return names
}
