package api

import (
	"cmp"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/tasks"
)

type HandlerOptions struct {
	HTTPClient *http.Client
	SiteName   string
	UserAgent  string
	Version    string
}

func NewHandler(runRepo database.RunRepositoryInterface, generator GeneratorInterface,
	service CrawlServiceInterface, scheduler tasks.TaskSchedulerInterface, options HandlerOptions) *Handler {
	return &Handler{
		runRepo:    runRepo,
		generator:  generator,
		service:    service,
		scheduler:  scheduler,
		httpClient: cmp.Or(options.HTTPClient, http.DefaultClient),
		siteName:   options.SiteName,
		userAgent:  options.UserAgent,
		version:    options.Version,
	}
}

func (h *Handler) GetRunFeed(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	run, err := h.runRepo.GetRun(c.Request.Context(), id)
	if errors.Is(err, database.ErrRunNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(run)
	if err != nil {
		slog.Error("RSS generation error", "run_id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(run.Articles)))
	c.Header("X-Run-Status", string(run.Status))
	c.Header("X-Last-Updated", run.FinishedAt.Format(time.RFC3339))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"site":      h.siteName,
		"version":   h.version,
	}

	if runCount, err := h.runRepo.GetRunCount(c.Request.Context()); err == nil {
		health["runs"] = runCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.runRepo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		items = append(items, map[string]interface{}{
			"id":            run.ID,
			"search_phrase": run.SearchPhrase,
			"months":        run.MonthsBack,
			"section":       run.Section,
			"status":        run.Status,
			"articles":      run.ArticleCount,
			"started_at":    run.StartedAt,
			"finished_at":   run.FinishedAt,
			"duration":      run.FinishedAt.Sub(run.StartedAt).String(),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"runs":  items,
		"total": len(items),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runRepo.GetRun(c.Request.Context(), id)
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	articles := make([]map[string]interface{}, 0, len(run.Articles))
	for _, article := range run.Articles {
		entry := map[string]interface{}{
			"id":               article.ID,
			"title":            article.Title,
			"published_date":   article.PublishedDate.Format("2006-01-02"),
			"source_url":       article.SourceURL,
			"image_url":        article.ImageURL,
			"thumbnail_path":   article.ThumbnailPath,
			"selected_section": article.SelectedSection,
			"description":      article.Description,
		}
		if article.ExtractedSection != nil {
			entry["extracted_section"] = *article.ExtractedSection
		}
		if article.Enrichment != nil {
			entry["phrase_count"] = article.Enrichment.PhraseCount
			entry["contains_money"] = article.Enrichment.ContainsMoney
		}
		articles = append(articles, entry)
	}

	details := map[string]interface{}{
		"id":            run.RunID,
		"search_phrase": run.Request.SearchPhrase,
		"months":        run.Request.MonthsBack,
		"section":       run.Request.Section,
		"status":        run.Status,
		"window": map[string]interface{}{
			"earliest": run.Window.Earliest.Format("2006-01-02"),
			"latest":   run.Window.Latest.Format("2006-01-02"),
		},
		"pages_visited":      run.PagesVisited,
		"skipped_items":      run.SkippedItems,
		"out_of_order_items": run.OutOfOrderItems,
		"started_at":         run.StartedAt,
		"finished_at":        run.FinishedAt,
		"articles":           articles,
	}
	if run.EndReason != nil {
		details["end_reason"] = run.EndReason.Error()
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APICreateRun(c *gin.Context) {
	var body createRunRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	req := crawl.Request{
		SearchPhrase: body.SearchPhrase,
		MonthsBack:   body.Months,
		Section:      cmp.Or(body.Section, "all"),
	}

	if err := h.service.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid crawl request",
			"details": err.Error(),
		})
		return
	}

	var onFinished func(*crawl.RunResult)
	if !body.SkipThumbnails {
		onFinished = h.enqueueThumbnails
	}

	task := tasks.NewCrawlTask(h.siteName, req, h.service, onFinished)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing crawl task", "site", h.siteName, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue crawl task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Crawl task enqueued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) APIDownloadThumbnails(c *gin.Context) {
	id := c.Param("id")

	thumbnails, err := h.runRepo.GetThumbnails(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_thumbnails", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if len(thumbnails) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No thumbnails for run"})
		return
	}

	task := tasks.NewDownloadThumbnailsTask(id, thumbnails, h.httpClient, h.userAgent)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing thumbnail task", "run_id", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue thumbnail task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":         task.ID,
			"type":       task.Type,
			"thumbnails": len(thumbnails),
		},
	})
}

func (h *Handler) enqueueThumbnails(result *crawl.RunResult) {
	thumbnails := tasks.ThumbnailsOf(result)
	if len(thumbnails) == 0 {
		return
	}

	task := tasks.NewDownloadThumbnailsTask(result.RunID, thumbnails, h.httpClient, h.userAgent)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue DownloadThumbnailsTask", "run_id", result.RunID, "error", err)
	}
}
