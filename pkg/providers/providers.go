package providers

import (
	"context"

	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/insights"
)

// ChangeSource supplies the commits of a documentation repository whose
// merge time falls inside a window. Different implementers may read a local
// working copy or serve fixed records.
type ChangeSource interface {
	// Changes returns the commits merged inside window, oldest first, each
	// carrying the unified diff of every text file it touched.
	Changes(ctx context.Context, window common.Window) ([]insights.CommitRecord, error)
}
