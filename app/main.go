package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/browser"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/output"
	"github.com/lysyi3m/news-comb/app/site"
	"github.com/lysyi3m/news-comb/app/tasks"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 2
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(exitFailure)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if err := cfg.ApplyTimezone(appCfg.Timezone); err != nil {
		slog.Error("Failed to load timezone", "timezone", appCfg.Timezone, "error", err)
		os.Exit(exitFailure)
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	switch appCfg.Command {
	case cfg.CommandCrawl:
		os.Exit(runCrawl(appCfg))
	case cfg.CommandServe:
		os.Exit(runServe(appCfg))
	}
}

// app holds what both commands share: the site profile, the browser and the
// stores a run is saved to.
type app struct {
	profile   *site.Profile
	browser   crawl.Browser
	db        *database.DB
	runRepo   *database.RunRepository
	csvWriter *output.CSVWriter
	service   *crawl.Service
}

func newApp(appCfg *cfg.Cfg) (*app, error) {
	a := &app{}

	// Site profile
	profiles := site.NewProfileCache(appCfg.SitesDir)
	if err := profiles.Run(); err != nil {
		return nil, fmt.Errorf("failed to load site profiles: %w", err)
	}
	profile, err := profiles.GetProfile(appCfg.Site)
	if err != nil {
		return nil, err
	}
	a.profile = profile
	slog.Info("Site profile loaded", "site", profile.Name, "profiles", profiles.GetProfileCount(), "sections", len(profile.Sections))

	// Stores
	var repositories []crawl.Repository
	if appCfg.HasStore(cfg.StoreSQLite) {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.db = db

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			a.Close()
			return nil, err
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "version", version, "dirty", dirty)

		a.runRepo = database.NewRunRepository(db)
		repositories = append(repositories, a.runRepo)
	}
	if appCfg.HasStore(cfg.StoreCSV) {
		a.csvWriter = output.NewCSVWriter(appCfg.OutputDir)
		repositories = append(repositories, a.csvWriter)
	}

	// Browser
	b, err := browser.New(appCfg.Backend, profile.Selectors, browser.Options{
		Headless:    appCfg.Headless,
		BrowserBin:  appCfg.BrowserBin,
		PageTimeout: appCfg.PageTimeout,
		UserAgent:   appCfg.UserAgent,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	a.browser = b

	paginator := crawl.NewPaginator(crawl.NewAssembler(appCfg.ThumbnailsDir), crawl.PaginatorOptions{
		PageSize:       profile.PageSize,
		ElementTimeout: appCfg.ElementTimeout,
		ScrollStep:     appCfg.ScrollStep,
		PartialPolicy:  crawl.PartialPolicy(appCfg.PartialPolicy),
	})

	a.service = crawl.NewService(b, output.NewFanout(repositories...), paginator, crawl.NewEnricher(),
		profile.BuildSearchURL, profile.Sections)

	return a, nil
}

func (a *app) Close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}

func runCrawl(appCfg *cfg.Cfg) int {
	a, err := newApp(appCfg)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		return exitFailure
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := crawl.Request{
		SearchPhrase: appCfg.Crawl.SearchPhrase,
		MonthsBack:   appCfg.Crawl.MonthsBack,
		Section:      appCfg.Crawl.Section,
	}

	result, err := a.service.Run(ctx, req)
	if err != nil {
		if errors.Is(err, crawl.ErrPersistence) && result != nil {
			slog.Error("Run finished but could not be saved", "run_id", result.RunID, "articles", len(result.Articles), "error", err)
		} else {
			slog.Error("Run failed", "error", err)
		}
		return exitFailure
	}

	if !appCfg.Crawl.SkipThumbnails {
		thumbnails := tasks.ThumbnailsOf(result)
		if len(thumbnails) > 0 {
			task := tasks.NewDownloadThumbnailsTask(result.RunID, thumbnails,
				&http.Client{Timeout: 60 * time.Second}, appCfg.UserAgent)
			task.Start()
			if err := task.Execute(ctx); err != nil {
				slog.Warn("Thumbnail download interrupted", "run_id", result.RunID, "error", err)
			}
		}
	}

	if a.csvWriter != nil {
		slog.Info("CSV written", "path", a.csvWriter.Path(result.RunID))
	}
	if a.runRepo != nil {
		generator := output.NewGenerator(appCfg.BaseUrl, appCfg.Port, appCfg.Version)
		slog.Info("Feed available while serving", "url", generator.FeedURL(result.RunID))
	}

	if result.Status == crawl.StatusPartial {
		slog.Warn("Run ended early", "run_id", result.RunID, "reason", result.EndReason)
		return exitPartial
	}

	return exitOK
}

func runServe(appCfg *cfg.Cfg) int {
	slog.Info("Starting News Comb server", "version", appCfg.Version)

	a, err := newApp(appCfg)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		return exitFailure
	}
	defer a.Close()

	// Initialize and start scheduler
	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	generator := output.NewGenerator(appCfg.BaseUrl, appCfg.Port, appCfg.Version)
	apiHandler := api.NewHandler(a.runRepo, generator, a.service, scheduler, api.HandlerOptions{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		SiteName:   a.profile.Name,
		UserAgent:  appCfg.UserAgent,
		Version:    appCfg.Version,
	})
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			"port", appCfg.Port,
			"feed", fmt.Sprintf("http://localhost:%s/runs/<id>/feed", appCfg.Port),
			"health", fmt.Sprintf("http://localhost:%s/health", appCfg.Port),
			"api_enabled", appCfg.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := exitOK
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = exitFailure
	}

	// Graceful shutdown
	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return exitCode
}
