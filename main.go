package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/config"
	"github.com/open-sauced/docs-digest/pkg/database"
	"github.com/open-sauced/docs-digest/pkg/digest"
	"github.com/open-sauced/docs-digest/pkg/github"
	"github.com/open-sauced/docs-digest/pkg/providers"
	"github.com/open-sauced/docs-digest/pkg/report"
	"github.com/open-sauced/docs-digest/pkg/server"
	"github.com/open-sauced/docs-digest/pkg/validator"
)

type globalFlags struct {
	repoPath   string
	configPath string
	githubRepo string
	debug      bool
}

type digestFlags struct {
	month          string
	categories     []string
	products       []string
	includeTrivial bool
	output         string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	global := &globalFlags{}
	flags := &digestFlags{}

	cmd := &cobra.Command{
		Use:           "docs-digest",
		Short:         "Summarize a month of documentation changes",
		Long:          "docs-digest reads the commits merged into a documentation repository during a month and writes a digest of the significant page updates, grouped by product.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDigest(cmd, global, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&global.repoPath, "repo", "", "path to the documentation git working copy")
	cmd.PersistentFlags().StringVar(&global.configPath, "config", "", "path to .yaml file config")
	cmd.PersistentFlags().StringVar(&global.githubRepo, "github-repo", "", "owner/name repository to look pull request titles up in")
	cmd.PersistentFlags().BoolVar(&global.debug, "debug", false, "run in debug mode")

	cmd.Flags().StringVar(&flags.month, "month", "", "month to report on as YYYY-MM (default: previous month)")
	cmd.Flags().StringSliceVar(&flags.categories, "category", nil, "product categories to report on (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&flags.products, "products", nil, "products to report on, overriding --category (repeatable or comma separated)")
	cmd.Flags().BoolVar(&flags.includeTrivial, "include-trivial", false, "include changes classified as trivial")
	cmd.Flags().StringVar(&flags.output, "output", "", "write the report to this file instead of stdout")

	cmd.AddCommand(newServeCmd(global))
	return cmd
}

func newServeCmd(global *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve digests of the repository over http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sugarLogger, err := newLogger(global.debug)
			if err != nil {
				return err
			}

			d, err := newDigester(sugarLogger, global)
			if err != nil {
				return err
			}

			if port == "" {
				port = os.Getenv("SERVER_PORT")
			}
			if port == "" {
				port = "8080"
			}

			return server.NewDigestServer(d, sugarLogger).Run(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (default: $SERVER_PORT or 8080)")
	return cmd
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("could not initiate debug zap logger: %w", err)
		}
	} else {
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("could not initiate production zap logger: %w", err)
		}
	}

	sugarLogger := logger.Sugar()
	sugarLogger.Debugf("initiated zap logger with level: %d", sugarLogger.Level())

	// Load the environment variables from the .env file
	err = godotenv.Load()
	if err != nil {
		sugarLogger.Debugf("No dot env file loaded. Continuing with existing environment: %v", err)
	}

	return sugarLogger, nil
}

// newDigester validates the repository flags and builds the Digester over
// the git working copy.
func newDigester(sugarLogger *zap.SugaredLogger, global *globalFlags) (*digest.Digester, error) {
	v := validator.New()
	validator.ValidateRepoPath(v, global.repoPath)
	if global.githubRepo != "" {
		validator.ValidateGithubRepo(v, global.githubRepo)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(global.configPath)
	if err != nil {
		return nil, err
	}
	if global.githubRepo != "" {
		cfg.GithubRepo = global.githubRepo
	}

	source, err := providers.NewGitChangeSource(global.repoPath, sugarLogger)
	if err != nil {
		return nil, err
	}

	d, err := digest.NewFromConfig(source, cfg, sugarLogger)
	if err != nil {
		return nil, err
	}

	if cfg.GithubRepo != "" {
		var client *github.GithubClient
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			client, err = github.NewTokenClient(token, cfg.GithubRepo)
		} else {
			sugarLogger.Warnf("GITHUB_TOKEN is not set, pull request lookups are rate limited")
			client, err = github.NewClient(nil, cfg.GithubRepo)
		}
		if err != nil {
			return nil, &common.ConfigurationError{Msg: "invalid GitHub repository", Err: err}
		}
		sugarLogger.Infof("Looking up pull request titles in %s", client.Repository())
		d.WithTitles(client)
	}

	return d, nil
}

func runDigest(cmd *cobra.Command, global *globalFlags, flags *digestFlags) error {
	sugarLogger, err := newLogger(global.debug)
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer sugarLogger.Sync()

	v := validator.New()
	validator.ValidateMonth(v, flags.month)
	if err := v.Err(); err != nil {
		return err
	}

	month := common.PreviousMonth(time.Now().UTC())
	if flags.month != "" {
		month, err = common.ParseMonth(flags.month)
		if err != nil {
			return err
		}
	}

	d, err := newDigester(sugarLogger, global)
	if err != nil {
		return err
	}

	rep, err := d.Run(cmd.Context(), digest.Options{
		Month:          month,
		Categories:     common.SplitList(flags.categories),
		Products:       common.SplitList(flags.products),
		IncludeTrivial: flags.includeTrivial,
	})
	if err != nil {
		return err
	}

	text := report.Render(rep)
	if flags.output != "" {
		if err := os.WriteFile(flags.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("could not write report: %w", err)
		}
		sugarLogger.Infof("Wrote %d entries to %s", rep.Len(), flags.output)
	} else if _, err := fmt.Fprint(cmd.OutOrStdout(), text); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}

	return archive(cmd, sugarLogger, rep)
}

// archive stores the report when an archive database is configured through
// the DATABASE_* environment variables.
func archive(cmd *cobra.Command, sugarLogger *zap.SugaredLogger, rep report.Report) error {
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return nil
	}

	handler, err := database.NewArchiveDbHandler(
		databaseHost,
		os.Getenv("DATABASE_PORT"),
		os.Getenv("DATABASE_USER"),
		os.Getenv("DATABASE_PASSWORD"),
		os.Getenv("DATABASE_DBNAME"),
	)
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer handler.Close()

	if err := handler.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	n, err := handler.StoreReport(cmd.Context(), rep)
	if err != nil {
		return err
	}

	total, err := handler.CountMonth(cmd.Context(), rep.Month.Key())
	if err != nil {
		return err
	}
	sugarLogger.Infof("Archived %d entries for %s, %d archived in total", n, rep.Month.Key(), total)
	return nil
}
