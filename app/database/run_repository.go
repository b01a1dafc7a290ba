package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/news-comb/app/crawl"
)

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

var ErrRunNotFound = errors.New("run not found")

// RunRepository stores crawl runs and their articles in SQLite.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save writes the run and all of its articles in one transaction.
func (r *RunRepository) Save(ctx context.Context, result *crawl.RunResult) error {
	var endReason sql.NullString
	if result.EndReason != nil {
		endReason = sql.NullString{String: result.EndReason.Error(), Valid: true}
	}

	return r.db.withTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, search_phrase, months_back, section, status,
				window_earliest, window_latest, pages_visited, skipped_items,
				out_of_order_items, end_reason, started_at, finished_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.RunID, result.Request.SearchPhrase, result.Request.MonthsBack, result.Request.Section,
			string(result.Status), result.Window.Earliest.Format(dateLayout), result.Window.Latest.Format(dateLayout),
			result.PagesVisited, result.SkippedItems, result.OutOfOrderItems, endReason,
			result.StartedAt.UTC().Format(timeLayout), result.FinishedAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO articles (
				id, run_id, position, title, published_date, source_url, image_url,
				thumbnail_path, extracted_section, selected_section, description,
				phrase_count, contains_money
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare article insert: %w", err)
		}
		defer stmt.Close()

		for i, article := range result.Articles {
			var section sql.NullString
			if article.ExtractedSection != nil {
				section = sql.NullString{String: *article.ExtractedSection, Valid: true}
			}

			var phraseCount int
			var containsMoney bool
			if article.Enrichment != nil {
				phraseCount = article.Enrichment.PhraseCount
				containsMoney = article.Enrichment.ContainsMoney
			}

			_, err := stmt.ExecContext(ctx, article.ID, result.RunID, i, article.Title,
				article.PublishedDate.Format(dateLayout), article.SourceURL, article.ImageURL,
				article.ThumbnailPath, section, article.SelectedSection, article.Description,
				phraseCount, containsMoney)
			if err != nil {
				return fmt.Errorf("failed to store article %s: %w", article.SourceURL, err)
			}
		}

		return nil
	})
}

// GetRun returns the run with its articles in crawl order, or
// ErrRunNotFound.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*crawl.RunResult, error) {
	var result crawl.RunResult
	var status, earliest, latest, startedAt, finishedAt string
	var endReason sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, search_phrase, months_back, section, status,
		       window_earliest, window_latest, pages_visited, skipped_items,
		       out_of_order_items, end_reason, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, runID).Scan(
		&result.RunID, &result.Request.SearchPhrase, &result.Request.MonthsBack, &result.Request.Section,
		&status, &earliest, &latest, &result.PagesVisited, &result.SkippedItems,
		&result.OutOfOrderItems, &endReason, &startedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	result.Status = crawl.Status(status)
	if endReason.Valid {
		result.EndReason = errors.New(endReason.String)
	}
	if result.Window.Earliest, err = time.Parse(dateLayout, earliest); err != nil {
		return nil, fmt.Errorf("invalid window start for run %s: %w", runID, err)
	}
	if result.Window.Latest, err = time.Parse(dateLayout, latest); err != nil {
		return nil, fmt.Errorf("invalid window end for run %s: %w", runID, err)
	}
	if result.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid start time for run %s: %w", runID, err)
	}
	if result.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("invalid finish time for run %s: %w", runID, err)
	}

	result.Articles, err = r.getArticles(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *RunRepository) getArticles(ctx context.Context, runID string) ([]crawl.Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, published_date, source_url, image_url, thumbnail_path,
		       extracted_section, selected_section, description, phrase_count, contains_money
		FROM articles
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	var articles []crawl.Article
	for rows.Next() {
		var article crawl.Article
		var published string
		var section sql.NullString
		var enrichment crawl.Enrichment

		err := rows.Scan(
			&article.ID, &article.Title, &published, &article.SourceURL, &article.ImageURL,
			&article.ThumbnailPath, &section, &article.SelectedSection, &article.Description,
			&enrichment.PhraseCount, &enrichment.ContainsMoney,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		if article.PublishedDate, err = time.Parse(dateLayout, published); err != nil {
			return nil, fmt.Errorf("invalid published date for article %s: %w", article.ID, err)
		}
		if section.Valid {
			article.ExtractedSection = &section.String
		}
		article.Enrichment = &enrichment

		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// ListRuns returns the most recent runs first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.search_phrase, r.months_back, r.section, r.status,
		       r.started_at, r.finished_at, COUNT(a.id)
		FROM runs r
		LEFT JOIN articles a ON a.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var startedAt, finishedAt string

		err := rows.Scan(&run.ID, &run.SearchPhrase, &run.MonthsBack, &run.Section, &run.Status,
			&startedAt, &finishedAt, &run.ArticleCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("invalid start time for run %s: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, fmt.Errorf("invalid finish time for run %s: %w", run.ID, err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) GetRunCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}

// GetThumbnails lists the run's articles that have an image URL.
func (r *RunRepository) GetThumbnails(ctx context.Context, runID string) ([]Thumbnail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, image_url, thumbnail_path
		FROM articles
		WHERE run_id = ? AND image_url != '' AND thumbnail_path != ''
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thumbnails: %w", err)
	}
	defer rows.Close()

	var thumbnails []Thumbnail
	for rows.Next() {
		var thumbnail Thumbnail
		if err := rows.Scan(&thumbnail.ArticleID, &thumbnail.ImageURL, &thumbnail.ThumbnailPath); err != nil {
			return nil, fmt.Errorf("failed to scan thumbnail row: %w", err)
		}
		thumbnails = append(thumbnails, thumbnail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thumbnail rows: %w", err)
	}

	return thumbnails, nil
}
