package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/database"
)

const (
	thumbnailTimeout = 30 * time.Second
	maxThumbnailSize = 10 * 1024 * 1024
)

// DownloadThumbnailsTask fetches article images into their reserved paths.
// A failed image is logged and skipped; the run it belongs to is unaffected.
type DownloadThumbnailsTask struct {
	Task
	thumbnails []database.Thumbnail
	httpClient *http.Client
	userAgent  string

	Downloaded int
	Failed     int
}

func NewDownloadThumbnailsTask(runID string, thumbnails []database.Thumbnail, httpClient *http.Client, userAgent string) *DownloadThumbnailsTask {
	return &DownloadThumbnailsTask{
		Task:       NewTask(TaskTypeDownloadThumbnails, runID),
		thumbnails: thumbnails,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// ThumbnailsOf lists the articles of result that have an image to fetch.
func ThumbnailsOf(result *crawl.RunResult) []database.Thumbnail {
	var thumbnails []database.Thumbnail
	for _, article := range result.Articles {
		if article.ImageURL == "" || article.ThumbnailPath == "" {
			continue
		}
		thumbnails = append(thumbnails, database.Thumbnail{
			ArticleID:     article.ID,
			ImageURL:      article.ImageURL,
			ThumbnailPath: article.ThumbnailPath,
		})
	}
	return thumbnails
}

func (t *DownloadThumbnailsTask) Execute(ctx context.Context) error {
	t.Downloaded, t.Failed = 0, 0

	for _, thumbnail := range t.thumbnails {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := os.Stat(thumbnail.ThumbnailPath); err == nil {
			t.Downloaded++
			continue
		}

		if err := t.download(ctx, thumbnail); err != nil {
			t.Failed++
			slog.Warn("Thumbnail download failed", "run_id", t.Target, "article_id", thumbnail.ArticleID, "url", thumbnail.ImageURL, "error", err)
			continue
		}
		t.Downloaded++
	}

	slog.Info("Task completed",
		"type", "DownloadThumbnails",
		"run_id", t.Target,
		"duration", t.GetDuration(),
		"total", len(t.thumbnails),
		"downloaded", t.Downloaded,
		"failed", t.Failed)

	return nil
}

func (t *DownloadThumbnailsTask) download(ctx context.Context, thumbnail database.Thumbnail) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, thumbnailTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, thumbnail.ImageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("not an image content type: %s", contentType)
	}

	if err := os.MkdirAll(filepath.Dir(thumbnail.ThumbnailPath), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	tmp := thumbnail.ThumbnailPath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(file, io.LimitReader(resp.Body, maxThumbnailSize))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save image: %w", err)
	}

	if err := os.Rename(tmp, thumbnail.ThumbnailPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move image into place: %w", err)
	}

	return nil
}
