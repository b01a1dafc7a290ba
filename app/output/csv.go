package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lysyi3m/news-comb/app/crawl"
)

var csvHeader = []string{
	"id", "title", "published_date", "source_url", "image_url", "thumbnail_path",
	"extracted_section", "selected_section", "description", "phrase_count", "contains_money",
}

// CSVWriter exports each run to <dir>/<run id>.csv, one row per article.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

func (w *CSVWriter) Save(ctx context.Context, result *crawl.RunResult) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := w.Path(result.RunID)
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := writeCSV(file, result); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	slog.Debug("Run exported", "run_id", result.RunID, "path", path, "articles", len(result.Articles))

	return nil
}

func (w *CSVWriter) Path(runID string) string {
	return filepath.Join(w.dir, runID+".csv")
}

func writeCSV(file *os.File, result *crawl.RunResult) error {
	cw := csv.NewWriter(file)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, article := range result.Articles {
		var section string
		if article.ExtractedSection != nil {
			section = *article.ExtractedSection
		}

		var phraseCount, containsMoney string
		if article.Enrichment != nil {
			phraseCount = strconv.Itoa(article.Enrichment.PhraseCount)
			containsMoney = strconv.FormatBool(article.Enrichment.ContainsMoney)
		}

		err := cw.Write([]string{
			article.ID,
			article.Title,
			article.PublishedDate.Format("2006-01-02"),
			article.SourceURL,
			article.ImageURL,
			article.ThumbnailPath,
			section,
			article.SelectedSection,
			article.Description,
			phraseCount,
			containsMoney,
		})
		if err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}
