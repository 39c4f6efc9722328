// package insights provides the data structures flowing through a digest
// run: commits read from the documentation repository and the per file
// changes derived from them.
package insights

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/open-sauced/docs-digest/pkg/classifier"
)

// CommitRecord is a single commit read from the change source. It is never
// modified once read.
type CommitRecord struct {
	ID       string
	MergedAt time.Time
	Message  string
	Files    []FileChange
}

// Subject returns the first line of the commit message.
func (c CommitRecord) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return strings.TrimSpace(subject)
}

// FileChange is one file touched by a commit. Path and Diff come from the
// change source; the remaining fields are derived by the digest pipeline,
// each step returning an updated copy.
type FileChange struct {
	Path string
	Diff string

	CommitID string
	MergedAt time.Time
	Subject  string

	// Product is empty when the path maps to no product.
	Product  string
	Class    classifier.Class
	Rule     string
	Reason   string
	Sections []string
}

// Resolved reports whether the change maps to a product.
func (f FileChange) Resolved() bool {
	return f.Product != ""
}

// Changes flattens the commit's files, stamping each with the commit's id,
// merge time and subject.
func (c CommitRecord) Changes() []FileChange {
	out := make([]FileChange, 0, len(c.Files))
	subject := c.Subject()
	for _, f := range c.Files {
		f.CommitID = c.ID
		f.MergedAt = c.MergedAt
		f.Subject = subject
		out = append(out, f)
	}
	return out
}

var prSuffix = regexp.MustCompile(`\s*\(#\d+\)\s*$`)

// CleanSubject removes a trailing pull request reference such as "(#12345)"
// from a commit subject.
func CleanSubject(subject string) string {
	return strings.TrimSpace(prSuffix.ReplaceAllString(subject, ""))
}

var (
	mergeSubject = regexp.MustCompile(`^Merge pull request #(\d+)\b`)
	squashSuffix = regexp.MustCompile(`\(#(\d+)\)\s*$`)
)

// PullRequestNumber returns the number of the pull request a commit subject
// names, either as a merge commit ("Merge pull request #123 from user/branch")
// or as a squash merge ending in "(#123)".
func PullRequestNumber(subject string) (int, bool) {
	m := mergeSubject.FindStringSubmatch(subject)
	if m == nil {
		m = squashSuffix.FindStringSubmatch(subject)
	}
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
