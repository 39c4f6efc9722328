// package categories holds the static table of product categories used to
// scope a documentation digest.
package categories

import (
	"sort"
	"strings"

	"github.com/open-sauced/docs-digest/pkg/common"
)

// Category is a named group of products. Categories are declared in a fixed
// order which is also the order product groups are rendered in when a
// category filter is active.
type Category struct {
	ID       string
	Label    string
	Products []string
}

// ProductSet is a set of product names.
type ProductSet map[string]bool

// Sorted returns the products in alphabetical order.
func (s ProductSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Registry is the read-only category table. It is built once at startup and
// never mutated.
type Registry struct {
	categories []Category
	always     []string

	// lookup maps lowercased product names and slugs to product names
	lookup map[string]string
}

// NewRegistry builds a Registry from an ordered category table and the set
// of products that are always included in a report.
func NewRegistry(categories []Category, always []string) *Registry {
	r := &Registry{
		categories: categories,
		always:     always,
		lookup:     make(map[string]string),
	}

	add := func(product string) {
		r.lookup[strings.ToLower(product)] = product
		r.lookup[Slug(product)] = product
	}
	for _, c := range categories {
		for _, p := range c.Products {
			add(p)
		}
	}
	for _, p := range always {
		add(p)
	}

	return r
}

// WithAliases returns a copy of the Registry that also accepts the given
// alias -> product names for explicit product selection. Aliases pointing at
// products the Registry does not know are ignored.
func (r *Registry) WithAliases(aliases map[string]string) *Registry {
	out := &Registry{
		categories: r.categories,
		always:     r.always,
		lookup:     make(map[string]string, len(r.lookup)+len(aliases)),
	}
	for k, v := range r.lookup {
		out.lookup[k] = v
	}
	for alias, product := range aliases {
		if _, known := r.lookup[strings.ToLower(product)]; known {
			out.lookup[strings.ToLower(alias)] = product
		}
	}
	return out
}

// Categories returns the category table in declaration order.
func (r *Registry) Categories() []Category {
	return r.categories
}

// Always returns the products included in every report.
func (r *Registry) Always() []string {
	return r.always
}

// ResolveProducts returns the products a report covers.
//
// Explicit products fully override the category selection. Otherwise the
// products of the selected categories are used, or of every category when
// none is selected. The always-included products are added in every case.
// Unknown category ids and unknown explicit products are ConfigurationErrors.
func (r *Registry) ResolveProducts(selected []string, explicit []string) (ProductSet, error) {
	set := make(ProductSet)

	switch {
	case len(explicit) > 0:
		var unknown []string
		for _, name := range explicit {
			product, ok := r.lookup[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				unknown = append(unknown, name)
				continue
			}
			set[product] = true
		}
		if len(unknown) > 0 {
			return nil, common.Configurationf("unknown products: %s", strings.Join(unknown, ", "))
		}
	case len(selected) > 0:
		var unknown []string
		for _, id := range selected {
			c, ok := r.category(id)
			if !ok {
				unknown = append(unknown, id)
				continue
			}
			for _, p := range c.Products {
				set[p] = true
			}
		}
		if len(unknown) > 0 {
			return nil, common.Configurationf("unknown categories: %s (known: %s)", strings.Join(unknown, ", "), strings.Join(r.ids(), ", "))
		}
	default:
		for _, c := range r.categories {
			for _, p := range c.Products {
				set[p] = true
			}
		}
	}

	for _, p := range r.always {
		set[p] = true
	}

	return set, nil
}

// Rank returns the declaration index of the first category containing
// product. Products outside every category are unranked.
func (r *Registry) Rank(product string) (int, bool) {
	for i, c := range r.categories {
		for _, p := range c.Products {
			if p == product {
				return i, true
			}
		}
	}
	return 0, false
}

func (r *Registry) category(id string) (Category, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, c := range r.categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func (r *Registry) ids() []string {
	ids := make([]string, 0, len(r.categories))
	for _, c := range r.categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Slug lowercases a product name and joins its words with dashes,
// e.g. "Load Balancing" becomes "load-balancing".
func Slug(product string) string {
	fields := strings.FieldsFunc(strings.ToLower(product), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
