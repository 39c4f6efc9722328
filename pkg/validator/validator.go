// package validator provides the necessary utilities
// to validate digest options before a run is started
package validator

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/open-sauced/docs-digest/pkg/common"
)

var (
	githubRepoRegex = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)
	monthRegex      = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Validator: type which contains a map of validation errors (error name : string -> error_description : string)
type Validator struct {
	Errors map[string]string
}

// New: return an instance of a validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid: returns true if there are no errors, otherwise false
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError: add a new error to the validator
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// CheckConstraint: Receives a constraint that evaluates to a boolean expression to validate
// false -> add error
// true -> skip
func (v *Validator) CheckConstraint(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Err: returns nil when valid, otherwise a single ConfigurationError listing
// every problem sorted by key
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}

	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	problems := make([]string, 0, len(keys))
	for _, k := range keys {
		problems = append(problems, k+": "+v.Errors[k])
	}
	return common.Configurationf("%s", strings.Join(problems, "; "))
}

// ValidateRepoPath checks the documentation working copy path points at a
// directory. Whether it is a git working copy is checked when it is opened.
func ValidateRepoPath(validator *Validator, path string) {
	validator.CheckConstraint(path != "", "repo", "a repository path must be provided")
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	validator.CheckConstraint(err == nil, "repo", "the repository path does not exist")
	if err == nil {
		validator.CheckConstraint(info.IsDir(), "repo", "the repository path is not a directory")
	}
}

// ValidateMonth checks an optional "YYYY-MM" month.
func ValidateMonth(validator *Validator, month string) {
	if month == "" {
		return
	}
	ok := monthRegex.MatchString(month)
	if ok {
		_, err := common.ParseMonth(month)
		ok = err == nil
	}
	validator.CheckConstraint(ok, "month", "the month must be formatted as YYYY-MM")
}

// ValidateGithubRepo checks an "owner/name" repository reference.
func ValidateGithubRepo(validator *Validator, repo string) {
	validator.CheckConstraint(MatchesGithubRepo(repo), "github-repo", "the GitHub repository must be formatted as owner/name")
}

func MatchesGithubRepo(repo string) bool {
	return githubRepoRegex.MatchString(repo)
}
