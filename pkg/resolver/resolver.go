// package resolver maps documentation file paths to the product they belong
// to and to the public page URL they are published at.
package resolver

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Rule maps a path prefix, relative to the docs content root, to a product.
// A prefix matches whole path segments only: "workers" matches
// "workers/index.md" but not "workers-ai/index.md".
type Rule struct {
	Prefix  string
	Product string
}

// Resolver resolves changed file paths using an ordered rule table. Rules
// are kept longest prefix first so that a parent directory never shadows a
// more specific child directory.
type Resolver struct {
	rules       []Rule
	contentRoot string
	baseURL     string
}

// New builds a Resolver. contentRoot is the repository directory holding the
// docs tree (e.g. "src/content/docs"); an empty contentRoot makes paths docs
// relative. baseURL is the site the pages are published on.
func New(rules []Rule, contentRoot, baseURL string) *Resolver {
	ordered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		ordered = append(ordered, Rule{
			Prefix:  strings.Trim(r.Prefix, "/"),
			Product: r.Product,
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Prefix) > len(ordered[j].Prefix)
	})

	return &Resolver{
		rules:       ordered,
		contentRoot: strings.Trim(contentRoot, "/"),
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

// Rules returns the rule table in match order.
func (r *Resolver) Rules() []Rule {
	return r.rules
}

// ResolveProduct returns the product owning filePath. Paths outside the
// content root or outside every product area are reported as unresolved;
// docs repositories legitimately contain such files.
func (r *Resolver) ResolveProduct(filePath string) (string, bool) {
	rel := r.relative(filePath)
	if rel == "" {
		return "", false
	}

	for _, rule := range r.rules {
		if rel == rule.Prefix || strings.HasPrefix(rel, rule.Prefix+"/") {
			return rule.Product, true
		}
	}

	return "", false
}

var pageExtensions = regexp.MustCompile(`\.(mdx?|html)$`)

// PagePath converts a file path into the site path of the page it renders,
// e.g. "src/content/docs/cache/get-started/index.mdx" becomes
// "cache/get-started".
func (r *Resolver) PagePath(filePath string) string {
	p := pageExtensions.ReplaceAllString(r.relative(filePath), "")
	if p == "index" {
		return ""
	}
	return strings.TrimSuffix(p, "/index")
}

// PageURL returns the public URL of the page rendered from filePath.
func (r *Resolver) PageURL(filePath string) string {
	p := r.PagePath(filePath)
	if p == "" {
		return r.baseURL + "/"
	}
	return r.baseURL + "/" + p + "/"
}

// Aliases returns the top level directory of every rule mapped to its
// product, so that "--products cache" can be used like "--products Cache".
func (r *Resolver) Aliases() map[string]string {
	aliases := make(map[string]string)
	for _, rule := range r.rules {
		if !strings.Contains(rule.Prefix, "/") {
			aliases[rule.Prefix] = rule.Product
		}
	}
	return aliases
}

// relative cleans filePath and strips the content root. With a content
// root, paths are repository relative and anything outside the root is
// reported as "". Without one, paths are docs relative.
func (r *Resolver) relative(filePath string) string {
	p := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(filePath, "\\", "/")), "/")
	if r.contentRoot == "" {
		return p
	}
	if !strings.HasPrefix(p, r.contentRoot+"/") {
		return ""
	}
	return strings.TrimPrefix(p, r.contentRoot+"/")
}
