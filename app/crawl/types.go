package crawl

import (
	"time"
)

// Article is one harvested search result.
type Article struct {
	ID               string
	Title            string
	PublishedDate    time.Time // UTC midnight, parsed from SourceURL
	SourceURL        string
	ImageURL         string
	ThumbnailPath    string  // reserved for the thumbnail downloader, not written here
	ExtractedSection *string // nil when the item shows no section label
	SelectedSection  string
	Description      string

	Enrichment *Enrichment // nil until Enricher runs
}

type Enrichment struct {
	PhraseCount   int
	ContainsMoney bool
}

func (a Article) IsEnriched() bool {
	return a.Enrichment != nil
}

// Window is an inclusive range of calendar months, both ends on day 1.
type Window struct {
	Earliest time.Time
	Latest   time.Time
}

type Request struct {
	SearchPhrase string
	MonthsBack   int
	Section      string
}

type Status string

const (
	StatusComplete  Status = "complete"
	StatusNoMatches Status = "no_matches"
	StatusPartial   Status = "partial"
)

type RunResult struct {
	RunID           string
	Request         Request
	Window          Window
	Articles        []Article
	Status          Status
	PagesVisited    int
	SkippedItems    int
	OutOfOrderItems int
	EndReason       error // set when Status is StatusPartial
	StartedAt       time.Time
	FinishedAt      time.Time
}

func (r *RunResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

type PartialPolicy string

const (
	// PartialKeep ends the run as partial and keeps what was collected.
	PartialKeep PartialPolicy = "keep"
	// PartialDiscard fails the whole run with ErrPageRenderTimeout.
	PartialDiscard PartialPolicy = "discard"
)

func (p PartialPolicy) Valid() bool {
	return p == PartialKeep || p == PartialDiscard
}
