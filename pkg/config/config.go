// package config loads the optional yaml configuration file of a digest run
// and fills in defaults for everything it leaves out.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/open-sauced/docs-digest/pkg/classifier"
	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/resolver"
	"github.com/open-sauced/docs-digest/pkg/validator"
)

// DefaultConcurrency is the number of file changes annotated in parallel.
const DefaultConcurrency = 8

// Config is the digest configuration.
type Config struct {
	// BaseURL is the site the documentation tree is published on.
	BaseURL string `yaml:"base-url"`

	// ContentRoot is the repository directory holding the documentation
	// tree. It is stripped from paths before they are resolved.
	ContentRoot string `yaml:"content-root"`

	// Concurrency bounds the number of file changes annotated at once.
	Concurrency int `yaml:"concurrency"`

	// GithubRepo is the "owner/name" repository pull request titles are
	// looked up in. Lookups are disabled when empty.
	GithubRepo string `yaml:"github-repo"`

	Classifier ClassifierConfig `yaml:"classifier"`

	// PathRules are extra directory to product mappings, added to the
	// built in table.
	PathRules []PathRule `yaml:"path-rules"`
}

// ClassifierConfig tunes the change classifier.
type ClassifierConfig struct {
	WordDeltaThreshold  int      `yaml:"word-delta-threshold"`
	MaxEditDistance     int      `yaml:"max-edit-distance"`
	BoilerplatePatterns []string `yaml:"boilerplate-patterns"`
	SubjectPatterns     []string `yaml:"subject-patterns"`
	MetadataKeys        []string `yaml:"metadata-keys"`
}

// PathRule maps a docs directory to a product name.
type PathRule struct {
	Prefix  string `yaml:"prefix"`
	Product string `yaml:"product"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := classifier.DefaultOptions()
	return &Config{
		BaseURL:     resolver.DefaultBaseURL,
		ContentRoot: resolver.DefaultContentRoot,
		Concurrency: DefaultConcurrency,
		Classifier: ClassifierConfig{
			WordDeltaThreshold:  opts.WordDeltaThreshold,
			MaxEditDistance:     opts.MaxEditDistance,
			BoilerplatePatterns: opts.BoilerplatePatterns,
			SubjectPatterns:     opts.SubjectPatterns,
			MetadataKeys:        opts.MetadataKeys,
		},
	}
}

// Load reads the yaml file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &common.ConfigurationError{Msg: "could not read configuration file " + path, Err: err}
	}

	return Parse(raw)
}

// Parse decodes yaml configuration over the defaults. Unknown keys are
// rejected.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &common.ConfigurationError{Msg: "could not parse configuration", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	v := validator.New()
	v.CheckConstraint(c.BaseURL != "", "base-url", "must not be empty")
	v.CheckConstraint(c.Concurrency > 0, "concurrency", "must be at least 1")
	v.CheckConstraint(c.Classifier.WordDeltaThreshold > 0, "classifier.word-delta-threshold", "must be at least 1")
	v.CheckConstraint(c.Classifier.MaxEditDistance >= 0, "classifier.max-edit-distance", "must not be negative")
	if c.GithubRepo != "" {
		validator.ValidateGithubRepo(v, c.GithubRepo)
	}
	for _, r := range c.PathRules {
		v.CheckConstraint(r.Prefix != "" && r.Product != "", "path-rules", "every rule needs a prefix and a product")
	}
	return v.Err()
}

// ClassifierOptions converts the classifier section to classifier.Options.
func (c *Config) ClassifierOptions() classifier.Options {
	return classifier.Options{
		WordDeltaThreshold:  c.Classifier.WordDeltaThreshold,
		MaxEditDistance:     c.Classifier.MaxEditDistance,
		BoilerplatePatterns: c.Classifier.BoilerplatePatterns,
		SubjectPatterns:     c.Classifier.SubjectPatterns,
		MetadataKeys:        c.Classifier.MetadataKeys,
	}
}

// Resolver builds the path resolver from PathRules and the built in rules.
// A configured rule wins over a built in rule with the same prefix.
func (c *Config) Resolver() *resolver.Resolver {
	rules := make([]resolver.Rule, 0, len(resolver.DefaultRules)+len(c.PathRules))
	for _, r := range c.PathRules {
		rules = append(rules, resolver.Rule{Prefix: r.Prefix, Product: r.Product})
	}
	rules = append(rules, resolver.DefaultRules...)
	return resolver.New(rules, c.ContentRoot, c.BaseURL)
}
