package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/insights"
)

// GitChangeSource reads commits and their diffs from a local git working
// copy. GitChangeSource implements and satisfies the ChangeSource interface.
type GitChangeSource struct {
	logger   *zap.SugaredLogger
	repoPath string
	repo     *git.Repository
}

// NewGitChangeSource opens the working copy at repoPath. See
// common.OpenWorkingCopy for the errors returned.
func NewGitChangeSource(repoPath string, l *zap.SugaredLogger) (ChangeSource, error) {
	repo, err := common.OpenWorkingCopy(repoPath)
	if err != nil {
		return nil, err
	}

	return &GitChangeSource{
		logger:   l,
		repoPath: repoPath,
		repo:     repo,
	}, nil
}

// Changes walks the history reachable from HEAD and returns the commits
// whose committer time falls inside window, oldest first.
//
// Merge commits are skipped: the commits they bring in are reported on
// their own, and diffing a merge against its first parent would report the
// same change twice. Binary files are skipped.
func (g *GitChangeSource) Changes(ctx context.Context, window common.Window) ([]insights.CommitRecord, error) {
	ref, err := g.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			g.logger.Infof("Repository has no commits yet: %s", g.repoPath)
			return nil, nil
		}
		return nil, &common.RepositoryError{Path: g.repoPath, Err: fmt.Errorf("could not resolve HEAD: %w", err)}
	}

	since := window.Start
	until := window.End.Add(-time.Nanosecond)
	logOptions := git.LogOptions{
		From:  ref.Hash(),
		Order: git.LogOrderCommitterTime,
		Since: &since,
		Until: &until,
	}

	g.logger.Debugf("Getting commit iterator with git log options: %v", logOptions)
	commitIter, err := g.repo.Log(&logOptions)
	if err != nil {
		return nil, &common.RepositoryError{Path: g.repoPath, Err: fmt.Errorf("could not read log: %w", err)}
	}
	defer commitIter.Close()

	var records []insights.CommitRecord
	err = commitIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !window.Contains(c.Committer.When) {
			return nil
		}

		if c.NumParents() > 1 {
			g.logger.Debugf("Skipping merge commit: %s", c.Hash.String())
			return nil
		}

		g.logger.Debugf("Inspecting commit: %s %s", c.Hash.String(), c.Committer.When)
		files, err := g.fileChanges(ctx, c)
		if err != nil {
			return fmt.Errorf("commit %s: %w", c.Hash.String(), err)
		}

		records = append(records, insights.CommitRecord{
			ID:       c.Hash.String(),
			MergedAt: c.Committer.When,
			Message:  c.Message,
			Files:    files,
		})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &common.RepositoryError{Path: g.repoPath, Err: err}
	}

	sortChronologically(records)
	return records, nil
}

// fileChanges diffs c against its first parent, or against the empty tree
// for a root commit, detecting renames.
func (g *GitChangeSource) fileChanges(ctx context.Context, c *object.Commit) ([]insights.FileChange, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("could not read tree: %w", err)
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("could not read parent: %w", err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("could not read parent tree: %w", err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("could not diff trees: %w", err)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not build patch: %w", err)
	}

	var files []insights.FileChange
	for _, fp := range patch.FilePatches() {
		path := filePatchPath(fp)
		if fp.IsBinary() && !isPureRename(fp) {
			g.logger.Debugf("Skipping binary file: %s", path)
			continue
		}

		text, err := encodeFilePatch(fp)
		if err != nil {
			return nil, fmt.Errorf("could not encode patch for %s: %w", path, err)
		}

		files = append(files, insights.FileChange{
			Path: path,
			Diff: text,
		})
	}

	return files, nil
}

// filePatchPath prefers the destination path so renames and additions are
// reported under their new name.
func filePatchPath(fp fdiff.FilePatch) string {
	from, to := fp.Files()
	if to != nil {
		return to.Path()
	}
	if from != nil {
		return from.Path()
	}
	return ""
}

// isPureRename reports whether fp moves a file without changing it. go-git
// reports such patches as binary since they carry no chunks.
func isPureRename(fp fdiff.FilePatch) bool {
	from, to := fp.Files()
	return from != nil && to != nil && from.Path() != to.Path() && from.Hash() == to.Hash()
}

// singleFilePatch satisfies fdiff.Patch for one file so each file can be
// encoded as its own unified diff.
type singleFilePatch struct {
	fp fdiff.FilePatch
}

func (p singleFilePatch) FilePatches() []fdiff.FilePatch {
	return []fdiff.FilePatch{p.fp}
}

func (p singleFilePatch) Message() string {
	return ""
}

func encodeFilePatch(fp fdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	err := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines).Encode(singleFilePatch{fp: fp})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
