package common

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// OpenWorkingCopy checks that repoPath exists and is a git working copy and
// returns the opened repository. A missing path is a ConfigurationError; a
// path that exists but holds no repository is a RepositoryError.
func OpenWorkingCopy(repoPath string) (*git.Repository, error) {
	path := filepath.Clean(repoPath)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ConfigurationError{Msg: "repository path does not exist: " + path, Err: err}
	}
	if !info.IsDir() {
		return nil, Configurationf("repository path is not a directory: %s", path)
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, &RepositoryError{Path: path, Err: errors.New("not a git working copy")}
		}
		return nil, &RepositoryError{Path: path, Err: err}
	}

	return repo, nil
}
