package categories

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-sauced/docs-digest/pkg/common"
)

func testRegistry() *Registry {
	return NewRegistry([]Category{
		{ID: "perf", Label: "Performance", Products: []string{"Cache", "Speed"}},
		{ID: "sec", Label: "Security", Products: []string{"WAF", "Cache"}},
		{ID: "dev", Label: "Developer", Products: []string{"Workers", "Load Balancing"}},
	}, []string{"Support", "Terraform"})
}

func TestResolveProducts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selected []string
		explicit []string
		expected []string
	}{
		{
			name:     "No selection uses every category",
			expected: []string{"Cache", "Load Balancing", "Speed", "Support", "Terraform", "WAF", "Workers"},
		},
		{
			name:     "Selected categories are unioned",
			selected: []string{"perf", "sec"},
			expected: []string{"Cache", "Speed", "Support", "Terraform", "WAF"},
		},
		{
			name:     "Category ids are case insensitive",
			selected: []string{"DEV"},
			expected: []string{"Load Balancing", "Support", "Terraform", "Workers"},
		},
		{
			name:     "Explicit products override categories",
			selected: []string{"perf"},
			explicit: []string{"Workers"},
			expected: []string{"Support", "Terraform", "Workers"},
		},
		{
			name:     "Explicit products match slugs",
			explicit: []string{"load-balancing", "waf"},
			expected: []string{"Load Balancing", "Support", "Terraform", "WAF"},
		},
		{
			name:     "Explicit always-included product is not duplicated",
			explicit: []string{"support"},
			expected: []string{"Support", "Terraform"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := testRegistry().ResolveProducts(tt.selected, tt.explicit)
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Error())
			}

			if diff := cmp.Diff(tt.expected, set.Sorted()); diff != "" {
				t.Fatalf("resolved products mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveProductsOverrideLaw(t *testing.T) {
	t.Parallel()

	r := testRegistry()
	explicit := []string{"Speed"}

	base, err := r.ResolveProducts(nil, explicit)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	for _, selected := range [][]string{{"perf"}, {"sec", "dev"}, {"perf", "sec", "dev"}} {
		got, err := r.ResolveProducts(selected, explicit)
		if err != nil {
			t.Fatalf("unexpected error: %s", err.Error())
		}
		if diff := cmp.Diff(base.Sorted(), got.Sorted()); diff != "" {
			t.Fatalf("explicit products should ignore categories %v (-want +got):\n%s", selected, diff)
		}
		for _, always := range r.Always() {
			if !got[always] {
				t.Fatalf("always-included product %s missing from %v", always, got.Sorted())
			}
		}
	}
}

func TestResolveProductsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selected []string
		explicit []string
	}{
		{name: "Unknown category fails fast", selected: []string{"perf", "prf"}},
		{name: "Unknown product fails fast", explicit: []string{"Cahce"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testRegistry().ResolveProducts(tt.selected, tt.explicit)
			var cfgErr *common.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected a ConfigurationError, got: %v", err)
			}
		})
	}
}

func TestRank(t *testing.T) {
	t.Parallel()

	r := testRegistry()

	tests := []struct {
		product  string
		rank     int
		isRanked bool
	}{
		{"Cache", 0, true},
		{"WAF", 1, true},
		{"Load Balancing", 2, true},
		{"Support", 0, false},
	}

	for _, tt := range tests {
		rank, ok := r.Rank(tt.product)
		if ok != tt.isRanked || rank != tt.rank {
			t.Fatalf("Rank(%s) = %d, %v; want %d, %v", tt.product, rank, ok, tt.rank, tt.isRanked)
		}
	}
}

func TestWithAliases(t *testing.T) {
	t.Parallel()

	r := testRegistry().WithAliases(map[string]string{
		"lb":      "Load Balancing",
		"missing": "Not A Product",
	})

	set, err := r.ResolveProducts(nil, []string{"LB"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if !set["Load Balancing"] {
		t.Fatalf("expected alias to resolve, got %v", set.Sorted())
	}

	if _, err := r.ResolveProducts(nil, []string{"missing"}); err == nil {
		t.Fatal("expected alias to an unknown product to be ignored")
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Load Balancing":      "load-balancing",
		"SSL/TLS":             "ssl-tls",
		"Cloudflare for SaaS": "cloudflare-for-saas",
		"R2":                  "r2",
	}

	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultRegistryAlwaysIncluded(t *testing.T) {
	t.Parallel()

	set, err := Default().ResolveProducts([]string{"app_perf"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	for _, p := range []string{"Support", "Fundamentals", "Terraform", "Cache"} {
		if !set[p] {
			t.Fatalf("expected %s in app_perf selection, got %v", p, set.Sorted())
		}
	}
	if set["Platform"] {
		t.Fatal("expected Platform to be outside app_perf")
	}
}
