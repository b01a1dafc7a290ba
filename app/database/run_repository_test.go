package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/crawl"
)

func newTestRepository(t *testing.T) *RunRepository {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 || dirty {
		t.Fatalf("Expected clean migration version 1, got %d (dirty=%v)", version, dirty)
	}

	return NewRunRepository(db)
}

func testRun(id string, startedAt time.Time) *crawl.RunResult {
	technology := "Technology"

	return &crawl.RunResult{
		RunID:   id,
		Request: crawl.Request{SearchPhrase: "gemini", MonthsBack: 2, Section: "all"},
		Window: crawl.Window{
			Earliest: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			Latest:   time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		Articles: []crawl.Article{
			{
				ID:               id + "-a",
				Title:            "Gemini launch costs $1,000",
				PublishedDate:    time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC),
				SourceURL:        "https://news.example.com/technology/gemini-launch-2024-08-15/",
				ImageURL:         "https://img.example.com/a.jpg",
				ThumbnailPath:    "/tmp/thumbs/" + id + "-a.png",
				ExtractedSection: &technology,
				SelectedSection:  "all",
				Enrichment:       &crawl.Enrichment{PhraseCount: 1, ContainsMoney: true},
			},
			{
				ID:              id + "-b",
				Title:           "Quiet week",
				PublishedDate:   time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
				SourceURL:       "https://news.example.com/world/quiet-week-2024-07-02/",
				ThumbnailPath:   "/tmp/thumbs/" + id + "-b.png",
				SelectedSection: "all",
				Enrichment:      &crawl.Enrichment{},
			},
		},
		Status:       crawl.StatusPartial,
		PagesVisited: 2,
		SkippedItems: 1,
		EndReason:    errors.New("page render timeout: offset 40"),
		StartedAt:    startedAt,
		FinishedAt:   startedAt.Add(3 * time.Second),
	}
}

func TestRunRepositorySaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	startedAt := time.Date(2024, 8, 20, 10, 30, 0, 0, time.UTC)
	if err := repo.Save(ctx, testRun("run-1", startedAt)); err != nil {
		t.Fatal(err)
	}

	run, err := repo.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}

	if run.Request.SearchPhrase != "gemini" || run.Request.MonthsBack != 2 {
		t.Errorf("Unexpected request %+v", run.Request)
	}
	if run.Status != crawl.StatusPartial {
		t.Errorf("Expected status partial, got %s", run.Status)
	}
	if run.EndReason == nil || run.EndReason.Error() != "page render timeout: offset 40" {
		t.Errorf("Expected end reason to round trip, got %v", run.EndReason)
	}
	if !run.Window.Earliest.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected window start 2024-07-01, got %v", run.Window.Earliest)
	}
	if !run.StartedAt.Equal(startedAt) {
		t.Errorf("Expected start %v, got %v", startedAt, run.StartedAt)
	}
	if run.Duration() != 3*time.Second {
		t.Errorf("Expected duration 3s, got %v", run.Duration())
	}

	if len(run.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(run.Articles))
	}

	first := run.Articles[0]
	if first.Title != "Gemini launch costs $1,000" {
		t.Errorf("Expected first article in crawl order, got '%s'", first.Title)
	}
	if first.ExtractedSection == nil || *first.ExtractedSection != "Technology" {
		t.Errorf("Expected section 'Technology', got %v", first.ExtractedSection)
	}
	if !first.Enrichment.ContainsMoney || first.Enrichment.PhraseCount != 1 {
		t.Errorf("Unexpected enrichment %+v", first.Enrichment)
	}
	if !first.PublishedDate.Equal(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published date 2024-08-15, got %v", first.PublishedDate)
	}

	if run.Articles[1].ExtractedSection != nil {
		t.Errorf("Expected no section, got %s", *run.Articles[1].ExtractedSection)
	}
}

func TestRunRepositoryGetMissingRun(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestRunRepositorySaveIsAtomic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := testRun("run-1", time.Now())
	run.Articles[1].ID = run.Articles[0].ID

	if err := repo.Save(ctx, run); err == nil {
		t.Fatal("Expected error for duplicate article id")
	}

	count, err := repo.GetRunCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected rolled back run, got %d runs", count)
	}
}

func TestRunRepositoryListRuns(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, testRun("older", base)); err != nil {
		t.Fatal(err)
	}

	empty := testRun("newer", base.Add(time.Hour))
	empty.Articles = nil
	empty.Status = crawl.StatusNoMatches
	empty.EndReason = nil
	if err := repo.Save(ctx, empty); err != nil {
		t.Fatal(err)
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "newer" || runs[0].ArticleCount != 0 {
		t.Errorf("Expected newest empty run first, got %+v", runs[0])
	}
	if runs[1].ID != "older" || runs[1].ArticleCount != 2 {
		t.Errorf("Expected older run with 2 articles, got %+v", runs[1])
	}

	count, err := repo.GetRunCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 runs, got %d", count)
	}
}

func TestRunRepositoryGetThumbnails(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, testRun("run-1", time.Now())); err != nil {
		t.Fatal(err)
	}

	thumbnails, err := repo.GetThumbnails(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(thumbnails) != 1 {
		t.Fatalf("Expected 1 thumbnail (article without image skipped), got %d", len(thumbnails))
	}
	if thumbnails[0].ArticleID != "run-1-a" {
		t.Errorf("Expected thumbnail for run-1-a, got %s", thumbnails[0].ArticleID)
	}
}

func TestNewConnection(t *testing.T) {
	if _, err := NewConnection(""); err == nil {
		t.Error("Expected error for empty database path")
	}
}
