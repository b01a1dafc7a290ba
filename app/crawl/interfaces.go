package crawl

import (
	"context"
	"time"
)

// ItemHandle points at one result entry of the page that is currently open.
// Handles go stale on the next Open.
type ItemHandle int

type Field string

const (
	FieldTitle        Field = "title"
	FieldLink         Field = "link"
	FieldSectionLabel Field = "section_label"
	FieldImageSrc     Field = "image_src"
	FieldDescription  Field = "description"
)

// Browser hands out browsing sessions. Each run owns one Page for its whole
// duration.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is the rendering capability the crawl loop drives.
//
// WaitForTotalIndicator returns ErrNoMatch when the source reports that the
// search has no results and ErrTimeout when nothing shows up within timeout.
// ItemField returns ErrFieldNotFound when the item has no such element.
type Page interface {
	Open(ctx context.Context, url string) error
	WaitForTotalIndicator(ctx context.Context, timeout time.Duration) (string, error)
	WaitForResultsList(ctx context.Context, timeout time.Duration) ([]ItemHandle, error)
	ItemField(ctx context.Context, item ItemHandle, field Field) (string, error)
	ScrollBy(ctx context.Context, pixels int)
	Close() error
}

// Repository receives the result of a run. Save is called at most once per
// run and is never retried by the service.
type Repository interface {
	Save(ctx context.Context, result *RunResult) error
}
