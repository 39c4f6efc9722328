// package digest runs the documentation digest pipeline: read the commits of
// a month from a change source, resolve, classify and extract the sections
// of every changed file, then assemble the report.
package digest

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/open-sauced/docs-digest/pkg/categories"
	"github.com/open-sauced/docs-digest/pkg/classifier"
	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/config"
	"github.com/open-sauced/docs-digest/pkg/insights"
	"github.com/open-sauced/docs-digest/pkg/providers"
	"github.com/open-sauced/docs-digest/pkg/report"
	"github.com/open-sauced/docs-digest/pkg/resolver"
	"github.com/open-sauced/docs-digest/pkg/sections"
)

// TitleLookup finds the title of the pull request a commit was merged with,
// either by pull request number or by commit.
type TitleLookup interface {
	PullRequestTitle(ctx context.Context, sha string) (string, bool, error)
	PullRequestTitleByNumber(ctx context.Context, number int) (string, bool, error)
}

// Options scopes a single run.
type Options struct {
	Month          common.Month
	Categories     []string
	Products       []string
	IncludeTrivial bool
}

// Digester holds the read-only tables and the change source a run uses.
// A Digester may be shared by concurrent runs.
type Digester struct {
	logger      *zap.SugaredLogger
	source      providers.ChangeSource
	registry    *categories.Registry
	resolver    *resolver.Resolver
	classifier  *classifier.Classifier
	titles      TitleLookup
	concurrency int
}

// New returns a Digester over the given tables. Explicit products may be
// named by their docs directory as well as by name.
func New(source providers.ChangeSource, registry *categories.Registry, r *resolver.Resolver, c *classifier.Classifier, l *zap.SugaredLogger) *Digester {
	return &Digester{
		logger:      l,
		source:      source,
		registry:    registry.WithAliases(r.Aliases()),
		resolver:    r,
		classifier:  c,
		concurrency: config.DefaultConcurrency,
	}
}

// NewFromConfig builds a Digester with the default category table and the
// resolver and classifier described by cfg.
func NewFromConfig(source providers.ChangeSource, cfg *config.Config, l *zap.SugaredLogger) (*Digester, error) {
	c, err := classifier.New(cfg.ClassifierOptions())
	if err != nil {
		return nil, &common.ConfigurationError{Msg: "invalid classifier configuration", Err: err}
	}

	return New(source, categories.Default(), cfg.Resolver(), c, l).WithConcurrency(cfg.Concurrency), nil
}

// WithTitles enables pull request title lookups for descriptions.
func (d *Digester) WithTitles(t TitleLookup) *Digester {
	d.titles = t
	return d
}

// WithConcurrency bounds the number of file changes annotated at once.
func (d *Digester) WithConcurrency(n int) *Digester {
	if n > 0 {
		d.concurrency = n
	}
	return d
}

// Run produces the report for opts.Month. An empty month is not an error.
func (d *Digester) Run(ctx context.Context, opts Options) (report.Report, error) {
	products, err := d.registry.ResolveProducts(opts.Categories, opts.Products)
	if err != nil {
		return report.Report{}, err
	}
	d.logger.Debugf("Reporting on %d products: %v", len(products), products.Sorted())

	d.logger.Infof("Reading commits merged in %s", opts.Month)
	records, err := d.source.Changes(ctx, opts.Month.Window())
	if err != nil {
		return report.Report{}, err
	}
	d.logger.Infof("Found %d commits", len(records))

	var changes []insights.FileChange
	for _, r := range records {
		changes = append(changes, r.Changes()...)
	}

	annotated, err := d.annotateAll(ctx, changes, products)
	if err != nil {
		return report.Report{}, err
	}

	describe, err := d.describer(ctx, annotated, products, opts.IncludeTrivial)
	if err != nil {
		return report.Report{}, err
	}

	assembleOpts := report.Options{
		IncludeTrivial: opts.IncludeTrivial,
		Products:       products,
		Pages:          d.resolver,
		Describe:       describe,
	}
	if len(opts.Categories) > 0 && len(opts.Products) == 0 {
		assembleOpts.Rank = d.registry.Rank
	}

	r := report.Assemble(annotated, opts.Month, assembleOpts)
	d.logger.Infof("Assembled %d entries across %d products", r.Len(), len(r.Groups))
	return r, nil
}

// annotateAll annotates changes concurrently. Results are stored by index so
// the output order matches the input order.
func (d *Digester) annotateAll(ctx context.Context, changes []insights.FileChange, products categories.ProductSet) ([]insights.FileChange, error) {
	annotated := make([]insights.FileChange, len(changes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range changes {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			annotated[i] = d.Annotate(changes[i], products)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return annotated, nil
}

// Annotate resolves the product of a change and, when the product is
// reported on, classifies the change and extracts its sections. The given
// change is not modified.
func (d *Digester) Annotate(c insights.FileChange, products categories.ProductSet) insights.FileChange {
	product, ok := d.resolver.ResolveProduct(c.Path)
	if !ok {
		d.logger.Debugf("No product for %s", c.Path)
		return c
	}
	c.Product = product

	if !products[product] {
		return c
	}

	change := classifier.NewChange(c.Diff, c.Subject)
	result := d.classifier.Evaluate(change)
	c.Class = result.Class
	c.Rule = result.Rule
	c.Reason = result.Reason
	c.Sections = sections.ExtractDiff(change.Diff)

	d.logger.Debugf("Classified %s in %s as %s (%s: %s)", c.Path, c.CommitID, c.Class, c.Rule, c.Reason)
	return c
}

// describer looks up the pull request titles of the commits that will be
// reported. A subject naming its pull request is looked up by number, any
// other commit by sha. Failed lookups are logged and the commit subject is
// used.
func (d *Digester) describer(ctx context.Context, changes []insights.FileChange, products categories.ProductSet, includeTrivial bool) (func(insights.FileChange) string, error) {
	if d.titles == nil {
		return nil, nil
	}

	subjects := make(map[string]string)
	var commits []string
	for _, c := range changes {
		if !c.Resolved() || !products[c.Product] {
			continue
		}
		if _, seen := subjects[c.CommitID]; seen {
			continue
		}
		if c.Class == classifier.Trivial && !includeTrivial {
			continue
		}
		subjects[c.CommitID] = c.Subject
		commits = append(commits, c.CommitID)
	}
	sort.Strings(commits)

	titles := make(map[string]string, len(commits))
	for _, sha := range commits {
		var (
			title string
			ok    bool
			err   error
		)
		if n, numbered := insights.PullRequestNumber(subjects[sha]); numbered {
			title, ok, err = d.titles.PullRequestTitleByNumber(ctx, n)
		} else {
			title, ok, err = d.titles.PullRequestTitle(ctx, sha)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			d.logger.Warnf("Could not look up the pull request of %s: %v", sha, err)
			continue
		}
		if ok {
			titles[sha] = title
		}
	}
	d.logger.Debugf("Found pull request titles for %d of %d commits", len(titles), len(commits))

	return func(c insights.FileChange) string {
		return titles[c.CommitID]
	}, nil
}
