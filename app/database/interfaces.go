package database

import (
	"context"

	"github.com/lysyi3m/news-comb/app/crawl"
)

type RunRepositoryInterface interface {
	crawl.Repository

	GetRun(ctx context.Context, runID string) (*crawl.RunResult, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	GetRunCount(ctx context.Context) (int, error)
	GetThumbnails(ctx context.Context, runID string) ([]Thumbnail, error)
}
