package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/open-sauced/docs-digest/pkg/common"
)

type fixtureCommit struct {
	when    time.Time
	message string
	files   map[string]string
}

// newFixtureRepo creates a git repository in a temp dir with one commit per
// fixtureCommit, in order.
func newFixtureRepo(t *testing.T, commits []fixtureCommit) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("could not init repo: %s", err.Error())
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("could not get worktree: %s", err.Error())
	}

	for _, c := range commits {
		for path, content := range c.files {
			full := filepath.Join(dir, path)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				t.Fatalf("mkdir: %s", err.Error())
			}
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				t.Fatalf("write file: %s", err.Error())
			}
			if _, err := wt.Add(path); err != nil {
				t.Fatalf("git add %s: %s", path, err.Error())
			}
		}

		sig := &object.Signature{Name: "docs bot", Email: "docs@example.com", When: c.when}
		if _, err := wt.Commit(c.message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
			t.Fatalf("git commit: %s", err.Error())
		}
	}

	return dir
}

func may() common.Window {
	return common.Month{Year: 2024, Month: time.May}.Window()
}

func TestGitChangeSourceChanges(t *testing.T) {
	t.Parallel()

	page := "src/content/docs/cache/strategies.md"
	dir := newFixtureRepo(t, []fixtureCommit{
		{
			when:    time.Date(2024, time.April, 20, 12, 0, 0, 0, time.UTC),
			message: "Add strategies page",
			files:   map[string]string{page: "# Strategies\n\n## Overview\n\nCache everything.\n"},
		},
		{
			when:    time.Date(2024, time.May, 2, 12, 0, 0, 0, time.UTC),
			message: "Add configuration section (#101)",
			files:   map[string]string{page: "# Strategies\n\n## Overview\n\nCache everything.\n\n## Configuration\n\nSet Cache-Control.\n"},
		},
		{
			when:    time.Date(2024, time.May, 20, 12, 0, 0, 0, time.UTC),
			message: "Add logo and DNS page",
			files: map[string]string{
				"src/content/docs/dns/index.md": "## DNS\n\nRecords.\n",
				"public/logo.png":               "\x89PNG\x00\x00\x01binary",
			},
		},
		{
			when:    time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			message: "June change",
			files:   map[string]string{page: "changed in june\n"},
		},
	})

	source, err := NewGitChangeSource(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	records, err := source.Changes(context.Background(), may())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 commits in may, got %d", len(records))
	}

	first := records[0]
	if first.Subject() != "Add configuration section (#101)" {
		t.Fatalf("expected records oldest first, got %q first", first.Subject())
	}
	if len(first.Files) != 1 || first.Files[0].Path != page {
		t.Fatalf("unexpected files for first commit: %+v", first.Files)
	}
	if !strings.Contains(first.Files[0].Diff, "+## Configuration") {
		t.Fatalf("expected the diff to add the configuration heading, got:\n%s", first.Files[0].Diff)
	}
	if !strings.Contains(first.Files[0].Diff, "@@ ") {
		t.Fatalf("expected a unified diff hunk, got:\n%s", first.Files[0].Diff)
	}

	second := records[1]
	if len(second.Files) != 1 || second.Files[0].Path != "src/content/docs/dns/index.md" {
		t.Fatalf("expected binary files to be skipped, got: %+v", second.Files)
	}
}

func TestGitChangeSourceRename(t *testing.T) {
	t.Parallel()

	oldPath := "src/content/docs/cache/old-name.md"
	newPath := "src/content/docs/cache/new-name.md"
	content := "## Overview\n\nSame content.\n"

	dir := newFixtureRepo(t, []fixtureCommit{
		{
			when:    time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			message: "Add page",
			files:   map[string]string{oldPath: content},
		},
	})

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("could not open repo: %s", err.Error())
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("could not get worktree: %s", err.Error())
	}
	if _, err := wt.Move(oldPath, newPath); err != nil {
		t.Fatalf("git mv: %s", err.Error())
	}
	sig := &object.Signature{Name: "docs bot", Email: "docs@example.com", When: time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC)}
	if _, err := wt.Commit("Rename page", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("git commit: %s", err.Error())
	}

	source, err := NewGitChangeSource(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	records, err := source.Changes(context.Background(), may())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	if len(records) != 1 || len(records[0].Files) != 1 {
		t.Fatalf("expected one renamed file, got: %+v", records)
	}
	renamed := records[0].Files[0]
	if renamed.Path != newPath {
		t.Fatalf("expected the new path, got %s", renamed.Path)
	}
	if strings.Contains(renamed.Diff, "@@") {
		t.Fatalf("expected no hunks for a pure rename, got:\n%s", renamed.Diff)
	}
}

func TestGitChangeSourceEmptyWindow(t *testing.T) {
	t.Parallel()

	dir := newFixtureRepo(t, []fixtureCommit{
		{
			when:    time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			message: "Old",
			files:   map[string]string{"src/content/docs/cache/a.md": "a\n"},
		},
	})

	source, err := NewGitChangeSource(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	records, err := source.Changes(context.Background(), may())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if len(records) != 0 {
		t.Fatalf("expected no commits, got %d", len(records))
	}
}

func TestGitChangeSourceNoCommits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("could not init repo: %s", err.Error())
	}

	source, err := NewGitChangeSource(dir, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	records, err := source.Changes(context.Background(), may())
	if err != nil || len(records) != 0 {
		t.Fatalf("expected an empty result from an empty repository, got %d records, err: %v", len(records), err)
	}
}

func TestNewGitChangeSourceNotARepository(t *testing.T) {
	t.Parallel()

	_, err := NewGitChangeSource(t.TempDir(), zap.NewNop().Sugar())

	var repoErr *common.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected a RepositoryError, got: %v", err)
	}
}
