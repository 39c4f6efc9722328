package common

import "fmt"

// ConfigurationError reports invalid user input: a missing repository path,
// an unknown category, a malformed month and so on. No report is produced
// when one is returned.
type ConfigurationError struct {
	Msg string
	Err error
}

// Configurationf builds a ConfigurationError from a format string.
func Configurationf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %s", e.Msg, e.Err.Error())
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RepositoryError reports that the documentation working copy could not be
// opened or queried.
type RepositoryError struct {
	Path string
	Err  error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository error: %s: %s", e.Path, e.Err.Error())
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
