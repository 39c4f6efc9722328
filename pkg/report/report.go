// package report assembles classified file changes into a monthly digest
// and renders it as text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/open-sauced/docs-digest/pkg/classifier"
	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/insights"
)

// Entry is one updated page of a product.
type Entry struct {
	Product     string
	Page        string
	URL         string
	Description string
	Sections    []string
}

// Group holds the entries of one product, sorted by page path.
type Group struct {
	Product string
	Entries []Entry
}

// Report is the assembled digest for a month.
type Report struct {
	Month  common.Month
	Groups []Group
}

// Len returns the number of entries in the report.
func (r Report) Len() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Entries)
	}
	return n
}

// PageLocator maps a changed file path to its page path and public URL.
type PageLocator interface {
	PagePath(filePath string) string
	PageURL(filePath string) string
}

// Options controls filtering and group ordering.
type Options struct {
	// IncludeTrivial keeps changes classified as trivial.
	IncludeTrivial bool

	// Products restricts the report to these products when non nil.
	Products map[string]bool

	// Rank orders product groups by category declaration when set; products
	// it does not rank come last. Groups are alphabetical when Rank is nil.
	Rank func(product string) (int, bool)

	// Pages locates pages. Required.
	Pages PageLocator

	// Describe overrides the description of a change. When it returns an
	// empty string the cleaned commit subject is used.
	Describe func(change insights.FileChange) string
}

type pageKey struct {
	product string
	page    string
}

// Assemble filters changes, merges the changes of each page and groups the
// pages by product.
//
// Changes are merged in merge time order whatever order they arrive in:
// sections are unioned in first seen order and distinct descriptions are
// joined with "; ".
func Assemble(changes []insights.FileChange, month common.Month, opts Options) Report {
	kept := make([]insights.FileChange, 0, len(changes))
	for _, c := range changes {
		if !c.Resolved() {
			continue
		}
		if c.Class == classifier.Trivial && !opts.IncludeTrivial {
			continue
		}
		if opts.Products != nil && !opts.Products[c.Product] {
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].MergedAt.Equal(kept[j].MergedAt) {
			return kept[i].MergedAt.Before(kept[j].MergedAt)
		}
		if kept[i].CommitID != kept[j].CommitID {
			return kept[i].CommitID < kept[j].CommitID
		}
		return kept[i].Path < kept[j].Path
	})

	entries := make(map[pageKey]*Entry)
	descriptions := make(map[pageKey][]string)
	for _, c := range kept {
		key := pageKey{product: c.Product, page: opts.Pages.PagePath(c.Path)}
		e, ok := entries[key]
		if !ok {
			e = &Entry{
				Product: c.Product,
				Page:    key.page,
				URL:     opts.Pages.PageURL(c.Path),
			}
			entries[key] = e
		}

		e.Sections = union(e.Sections, c.Sections)
		descriptions[key] = union(descriptions[key], []string{describe(c, opts.Describe)})
	}

	byProduct := make(map[string][]Entry)
	for key, e := range entries {
		e.Description = strings.Join(descriptions[key], "; ")
		byProduct[key.product] = append(byProduct[key.product], *e)
	}

	products := make([]string, 0, len(byProduct))
	for p := range byProduct {
		products = append(products, p)
	}
	sortProducts(products, opts.Rank)

	r := Report{Month: month}
	for _, p := range products {
		group := byProduct[p]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Page < group[j].Page
		})
		r.Groups = append(r.Groups, Group{Product: p, Entries: group})
	}

	return r
}

func describe(c insights.FileChange, override func(insights.FileChange) string) string {
	if override != nil {
		if d := strings.TrimSpace(override(c)); d != "" {
			return d
		}
	}
	return insights.CleanSubject(c.Subject)
}

func sortProducts(products []string, rank func(string) (int, bool)) {
	if rank == nil {
		sort.Strings(products)
		return
	}

	sort.Slice(products, func(i, j int) bool {
		ri, oki := rank(products[i])
		rj, okj := rank(products[j])
		switch {
		case oki && okj && ri != rj:
			return ri < rj
		case oki != okj:
			return oki
		default:
			return products[i] < products[j]
		}
	})
}

// union appends the items of add missing from base, keeping first seen
// order.
func union(base, add []string) []string {
	for _, item := range add {
		if item == "" || contains(base, item) {
			continue
		}
		base = append(base, item)
	}
	return base
}

func contains(items []string, item string) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}
	return false
}

// Render renders the report as plain text: a header line, then one block
// per entry separated by a blank line. An empty report renders the header
// only.
func Render(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Documentation Updates - %s\n", r.Month.String())
	for _, g := range r.Groups {
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "\nUpdate to the %s documentation: %s\n", e.Product, e.Description)
			if len(e.Sections) > 0 {
				fmt.Fprintf(&b, "   - %s - Updated: %s\n", e.URL, strings.Join(e.Sections, ", "))
			} else {
				fmt.Fprintf(&b, "   - %s\n", e.URL)
			}
		}
	}

	return b.String()
}
