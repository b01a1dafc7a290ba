package tasks

import (
	"context"

	"github.com/lysyi3m/news-comb/app/crawl"
)

// TaskSchedulerInterface is the queue the API hands crawl requests to.
//
//	scheduler := NewScheduler(workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewCrawlTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// CrawlRunner runs one crawl to completion and persists it.
type CrawlRunner interface {
	Run(ctx context.Context, req crawl.Request) (*crawl.RunResult, error)
}
