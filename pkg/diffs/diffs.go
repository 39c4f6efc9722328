// package diffs turns the unified diff text of a single file into hunks of
// typed lines that the classifier and the section extractor can walk.
package diffs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Op is the kind of a diff line.
type Op byte

const (
	Context Op = ' '
	Added   Op = '+'
	Removed Op = '-'
)

// Line is a single line of a hunk without its diff prefix.
type Line struct {
	Op   Op
	Text string
}

// Hunk is a contiguous block of a file diff.
type Hunk struct {
	OrigStart int
	NewStart  int
	Lines     []Line
}

// FileDiff is the parsed diff of one file.
type FileDiff struct {
	Hunks []Hunk
}

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// Parse parses the unified diff of a single file. Well formed diffs are
// parsed with go-diff; text go-diff rejects (hand edited hunks with wrong
// line counts, stripped blank context lines, bare +/- snippets) is scanned
// leniently instead, so Parse never fails.
func Parse(text string) FileDiff {
	idx := hunkStart(text)
	if idx < 0 {
		return parseSnippet(text)
	}

	hunks, err := diff.ParseHunks([]byte(text[idx:]))
	if err != nil {
		return parseLenient(text[idx:])
	}

	fd := FileDiff{Hunks: make([]Hunk, 0, len(hunks))}
	for _, h := range hunks {
		fd.Hunks = append(fd.Hunks, Hunk{
			OrigStart: int(h.OrigStartLine),
			NewStart:  int(h.NewStartLine),
			Lines:     bodyLines(string(h.Body)),
		})
	}
	return fd
}

// hunkStart returns the offset of the first hunk header line.
func hunkStart(text string) int {
	if strings.HasPrefix(text, "@@ ") {
		return 0
	}
	if i := strings.Index(text, "\n@@ "); i >= 0 {
		return i + 1
	}
	return -1
}

func bodyLines(body string) []Line {
	raw := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		if line, ok := toLine(l); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func toLine(l string) (Line, bool) {
	if l == "" {
		return Line{Op: Context}, true
	}
	switch l[0] {
	case '+':
		return Line{Op: Added, Text: l[1:]}, true
	case '-':
		return Line{Op: Removed, Text: l[1:]}, true
	case ' ':
		return Line{Op: Context, Text: l[1:]}, true
	case '\\':
		// "\ No newline at end of file"
		return Line{}, false
	default:
		return Line{Op: Context, Text: l}, true
	}
}

func parseLenient(text string) FileDiff {
	var fd FileDiff
	var current *Hunk

	for _, l := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if m := hunkHeader.FindStringSubmatch(l); m != nil {
			orig, _ := strconv.Atoi(m[1])
			next, _ := strconv.Atoi(m[2])
			fd.Hunks = append(fd.Hunks, Hunk{OrigStart: orig, NewStart: next})
			current = &fd.Hunks[len(fd.Hunks)-1]
			continue
		}
		if current == nil {
			continue
		}
		if line, ok := toLine(l); ok {
			current.Lines = append(current.Lines, line)
		}
	}

	return fd
}

// parseSnippet handles text without hunk headers: either a diff that only
// carries file headers (a pure rename) or bare +/- lines.
func parseSnippet(text string) FileDiff {
	var h Hunk
	changed := false

	for _, l := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if isFileHeader(l) {
			continue
		}
		line, ok := toLine(l)
		if !ok {
			continue
		}
		if line.Op != Context {
			changed = true
		}
		h.Lines = append(h.Lines, line)
	}

	if !changed {
		return FileDiff{}
	}
	h.OrigStart, h.NewStart = 1, 1
	return FileDiff{Hunks: []Hunk{h}}
}

func isFileHeader(l string) bool {
	for _, prefix := range []string{"diff --git ", "--- ", "+++ ", "index ", "new file mode", "deleted file mode", "old mode", "new mode", "similarity index", "rename from", "rename to", "copy from", "copy to", "Binary files"} {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

// Changed returns the added and removed lines of the whole diff, in order.
func (fd FileDiff) Changed() (added, removed []string) {
	for _, h := range fd.Hunks {
		for _, l := range h.Lines {
			switch l.Op {
			case Added:
				added = append(added, l.Text)
			case Removed:
				removed = append(removed, l.Text)
			}
		}
	}
	return added, removed
}

// Empty reports whether the diff changes no line.
func (fd FileDiff) Empty() bool {
	added, removed := fd.Changed()
	return len(added) == 0 && len(removed) == 0
}

// Run is a maximal block of consecutive changed lines inside a hunk. A
// modified line shows up as a run with both removed and added lines.
type Run struct {
	Removed []string
	Added   []string
}

// Runs returns the change runs of every hunk in file order.
func (fd FileDiff) Runs() []Run {
	var runs []Run
	for _, h := range fd.Hunks {
		var cur *Run
		for _, l := range h.Lines {
			if l.Op == Context {
				cur = nil
				continue
			}
			if cur == nil {
				runs = append(runs, Run{})
				cur = &runs[len(runs)-1]
			}
			if l.Op == Added {
				cur.Added = append(cur.Added, l.Text)
			} else {
				cur.Removed = append(cur.Removed, l.Text)
			}
		}
	}
	return runs
}
