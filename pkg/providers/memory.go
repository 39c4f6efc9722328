package providers

import (
	"context"
	"sort"

	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/insights"
)

// InMemoryChangeSource implements and satisfies the ChangeSource interface
// over a fixed set of records.
type InMemoryChangeSource struct {
	records []insights.CommitRecord
}

// NewInMemoryChangeSource returns a ChangeSource serving records.
func NewInMemoryChangeSource(records ...insights.CommitRecord) ChangeSource {
	return &InMemoryChangeSource{records: records}
}

// Changes returns the records merged inside window, oldest first.
func (im *InMemoryChangeSource) Changes(ctx context.Context, window common.Window) ([]insights.CommitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []insights.CommitRecord
	for _, r := range im.records {
		if window.Contains(r.MergedAt) {
			out = append(out, r)
		}
	}

	sortChronologically(out)
	return out, nil
}

func sortChronologically(records []insights.CommitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].MergedAt.Equal(records[j].MergedAt) {
			return records[i].MergedAt.Before(records[j].MergedAt)
		}
		return records[i].ID < records[j].ID
	})
}
