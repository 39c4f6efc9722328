package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open-sauced/docs-digest/pkg/classifier"
	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/resolver"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected err: %s", err.Error())
	}

	if cfg.BaseURL != resolver.DefaultBaseURL || cfg.ContentRoot != resolver.DefaultContentRoot {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if diff := cmp.Diff(classifier.DefaultOptions(), cfg.ClassifierOptions()); diff != "" {
		t.Fatalf("classifier defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
base-url: https://docs.example.com/
concurrency: 2
github-repo: cloudflare/cloudflare-docs
classifier:
  word-delta-threshold: 40
  subject-patterns:
    - '\bnit\b'
path-rules:
  - prefix: cache
    product: Caching
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("unexpected err writing config: %s", err.Error())
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected err: %s", err.Error())
	}

	if cfg.Concurrency != 2 || cfg.GithubRepo != "cloudflare/cloudflare-docs" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	opts := cfg.ClassifierOptions()
	if opts.WordDeltaThreshold != 40 || opts.MaxEditDistance != classifier.DefaultOptions().MaxEditDistance {
		t.Fatalf("expected partial classifier override, got %+v", opts)
	}
	if diff := cmp.Diff([]string{`\bnit\b`}, opts.SubjectPatterns); diff != "" {
		t.Fatalf("subject patterns mismatch (-want +got):\n%s", diff)
	}

	r := cfg.Resolver()
	if product, _ := r.ResolveProduct("src/content/docs/cache/index.md"); product != "Caching" {
		t.Fatalf("expected configured rule to win, got %q", product)
	}
	if url := r.PageURL("src/content/docs/dns/index.md"); url != "https://docs.example.com/dns/" {
		t.Fatalf("expected configured base url, got %q", url)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "Unknown key", raw: "no-such-key: 1\n"},
		{name: "Bad yaml", raw: "concurrency: [\n"},
		{name: "Zero concurrency", raw: "concurrency: 0\n"},
		{name: "Bad github repo", raw: "github-repo: not-a-repo\n"},
		{name: "Incomplete path rule", raw: "path-rules:\n  - prefix: cache\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.raw))
			var cfgErr *common.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected a ConfigurationError, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *common.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected err: %s", err.Error())
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
