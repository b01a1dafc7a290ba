package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/crawl"
)

type CrawlTask struct {
	Task
	Request    crawl.Request
	runner     CrawlRunner
	onFinished func(*crawl.RunResult)
	lastErr    error
}

// NewCrawlTask runs req against site. onFinished, when set, receives every
// saved result.
func NewCrawlTask(site string, req crawl.Request, runner CrawlRunner, onFinished func(*crawl.RunResult)) *CrawlTask {
	return &CrawlTask{
		Task:       NewTask(TaskTypeCrawl, site),
		Request:    req,
		runner:     runner,
		onFinished: onFinished,
	}
}

func (t *CrawlTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.runner.Run(ctx, t.Request)
	t.lastErr = err
	if err != nil {
		return fmt.Errorf("crawl of %s failed: %w", t.Target, err)
	}

	slog.Info("Task completed",
		"type", "Crawl",
		"site", t.Target,
		"run_id", result.RunID,
		"status", string(result.Status),
		"articles", len(result.Articles),
		"duration", t.GetDuration())

	if t.onFinished != nil {
		t.onFinished(result)
	}

	return nil
}

// CanRetry allows another attempt only when the source could not be reached.
// Anything else either saved a result already or will fail the same way.
func (t *CrawlTask) CanRetry() bool {
	return errors.Is(t.lastErr, crawl.ErrSourceUnavailable) && t.Task.CanRetry()
}
