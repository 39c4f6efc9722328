// package classifier decides whether a documentation change is significant
// or a trivial edit (typo, formatting, metadata) that a digest can skip.
//
// Classification is an ordered list of named rules. Significant rules are
// evaluated first and win outright, then trivial rules; a diff matching
// neither is significant so that unknown changes are never dropped.
package classifier

import (
	"fmt"
	"regexp"

	"github.com/open-sauced/docs-digest/pkg/diffs"
)

// Class is the outcome of classifying a change.
type Class string

const (
	Trivial     Class = "trivial"
	Significant Class = "significant"
)

// DefaultRule names the fallback when no rule matches.
const DefaultRule = "default"

// Result is a classification together with the rule that produced it.
type Result struct {
	Class  Class
	Rule   string
	Reason string
}

// Change is the normalized view of a file diff that rules match against.
type Change struct {
	Diff    diffs.FileDiff
	Added   []string
	Removed []string
	Subject string
}

// NewChange parses diff text into a Change.
func NewChange(diff, subject string) *Change {
	fd := diffs.Parse(diff)
	added, removed := fd.Changed()
	return &Change{
		Diff:    fd,
		Added:   added,
		Removed: removed,
		Subject: subject,
	}
}

// Rule is a named predicate over a Change. Match returns a short detail
// that becomes the classification reason.
type Rule struct {
	Name  string
	Match func(c *Change) (string, bool)
}

// Options tunes the default rule set.
type Options struct {
	// WordDeltaThreshold is the net number of words added or removed that
	// makes a change significant.
	WordDeltaThreshold int

	// MaxEditDistance is the largest per line edit distance still counted
	// as a spelling or punctuation fix.
	MaxEditDistance int

	// BoilerplatePatterns match changed lines of generated or boilerplate
	// content. A diff whose changed lines all match is trivial.
	BoilerplatePatterns []string

	// SubjectPatterns match commit subjects of low value commits.
	SubjectPatterns []string

	// MetadataKeys are front matter keys unrelated to page content.
	MetadataKeys []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		WordDeltaThreshold: 25,
		MaxEditDistance:    3,
		BoilerplatePatterns: []string{
			`^\s*<!--.*-->\s*$`,
			`^\s*\{/\*.*\*/\}\s*$`,
			`^\s*import\s+.+\s+from\s+["'][^"']+["'];?\s*$`,
		},
		SubjectPatterns: []string{
			`\btypo\b`,
			`\bformatting\b`,
			`\bwhitespace\b`,
			`\bminor\b`,
			`\b(update|broken|fix) links?\b`,
			`\bstyle\b`,
			`\bindentation\b`,
			`\bpunctuation\b`,
			`\bspelling\b`,
			`\bdash ?button\b`,
		},
		MetadataKeys: []string{
			"pcx_content_type",
			"sidebar",
			"order",
			"updated",
			"reviewed",
			"tags",
			"head",
			"products",
			"weight",
			"meta",
		},
	}
}

// Classifier evaluates its significant rules, then its trivial rules.
type Classifier struct {
	significant []Rule
	trivial     []Rule
}

// New builds a Classifier with the default rule set tuned by opts.
func New(opts Options) (*Classifier, error) {
	boilerplate, err := compile(opts.BoilerplatePatterns)
	if err != nil {
		return nil, fmt.Errorf("could not compile boilerplate patterns: %w", err)
	}

	subjects, err := compile(opts.SubjectPatterns)
	if err != nil {
		return nil, fmt.Errorf("could not compile subject patterns: %w", err)
	}

	return NewWithRules(
		[]Rule{
			HeadingAdded(opts.MaxEditDistance),
			CodeBlockAdded(),
			LinkTargetAdded(),
			WordDelta(opts.WordDeltaThreshold),
		},
		[]Rule{
			EmptyDiff(),
			WhitespaceOnly(),
			FrontMatterOnly(opts.MetadataKeys),
			FormattingOnly(),
			LinkTextOnly(),
			SpellingOnly(opts.MaxEditDistance),
			Boilerplate(boilerplate),
			SubjectHint(subjects),
		},
	), nil
}

// NewWithRules builds a Classifier from explicit rule lists. Rules keep the
// order they are given in.
func NewWithRules(significant, trivial []Rule) *Classifier {
	return &Classifier{
		significant: significant,
		trivial:     trivial,
	}
}

// Classify classifies the unified diff of a single file.
func (c *Classifier) Classify(diff string) Result {
	return c.ClassifyChange(diff, "")
}

// ClassifyChange classifies a file diff, also consulting the subject of the
// commit it belongs to.
func (c *Classifier) ClassifyChange(diff, subject string) Result {
	return c.Evaluate(NewChange(diff, subject))
}

// Evaluate runs the rules over a parsed Change.
func (c *Classifier) Evaluate(change *Change) Result {
	for _, r := range c.significant {
		if detail, ok := r.Match(change); ok {
			return Result{Class: Significant, Rule: r.Name, Reason: detail}
		}
	}

	for _, r := range c.trivial {
		if detail, ok := r.Match(change); ok {
			return Result{Class: Trivial, Rule: r.Name, Reason: detail}
		}
	}

	return Result{Class: Significant, Rule: DefaultRule, Reason: "no rule matched"}
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
