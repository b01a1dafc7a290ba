package api

import (
	"context"
	"net/http"

	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/output"
	"github.com/lysyi3m/news-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(run *crawl.RunResult) (string, error)
}

var _ GeneratorInterface = (*output.Generator)(nil)

// CrawlServiceInterface checks crawl requests up front and runs them later
// from a task.
type CrawlServiceInterface interface {
	Validate(req crawl.Request) error
	Run(ctx context.Context, req crawl.Request) (*crawl.RunResult, error)
}

var _ CrawlServiceInterface = (*crawl.Service)(nil)

type Handler struct {
	runRepo    database.RunRepositoryInterface
	generator  GeneratorInterface
	service    CrawlServiceInterface
	scheduler  tasks.TaskSchedulerInterface
	httpClient *http.Client
	siteName   string
	userAgent  string
	version    string
}

type createRunRequest struct {
	SearchPhrase   string `json:"search_phrase" binding:"required"`
	Months         int    `json:"months"`
	Section        string `json:"section"`
	SkipThumbnails bool   `json:"skip_thumbnails"`
}
