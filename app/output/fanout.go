package output

import (
	"context"
	"fmt"

	"github.com/lysyi3m/news-comb/app/crawl"
)

// Fanout saves a run to several repositories in order and stops at the
// first failure.
type Fanout struct {
	repositories []crawl.Repository
}

func NewFanout(repositories ...crawl.Repository) *Fanout {
	return &Fanout{repositories: repositories}
}

func (f *Fanout) Save(ctx context.Context, result *crawl.RunResult) error {
	for i, repository := range f.repositories {
		if err := repository.Save(ctx, result); err != nil {
			return fmt.Errorf("store %d of %d: %w", i+1, len(f.repositories), err)
		}
	}
	return nil
}
