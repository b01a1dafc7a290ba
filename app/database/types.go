package database

import (
	"time"
)

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID           string
	SearchPhrase string
	MonthsBack   int
	Section      string
	Status       string
	ArticleCount int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Thumbnail is an article image still to be fetched into ThumbnailPath.
type Thumbnail struct {
	ArticleID     string
	ImageURL      string
	ThumbnailPath string
}
