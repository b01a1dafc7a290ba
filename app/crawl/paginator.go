package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize       = 20
	DefaultElementTimeout = 10 * time.Second
	DefaultScrollStep     = 400
)

type Query struct {
	SearchPhrase string
	Section      string
	URL          func(offset int) string
}

type PaginatorOptions struct {
	PageSize       int
	ElementTimeout time.Duration
	ScrollStep     int
	PartialPolicy  PartialPolicy
}

// Outcome is what one traversal of the result pages produced.
type Outcome struct {
	Articles        []Article
	Total           int
	NoMatches       bool
	CutoffReached   bool
	PagesVisited    int
	SkippedItems    int
	OutOfOrderItems int
	EndReason       error // non-nil when the traversal stopped before the last page
}

type Paginator struct {
	assembler *Assembler
	opts      PaginatorOptions
}

func NewPaginator(assembler *Assembler, opts PaginatorOptions) *Paginator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = DefaultElementTimeout
	}
	if !opts.PartialPolicy.Valid() {
		opts.PartialPolicy = PartialKeep
	}

	return &Paginator{
		assembler: assembler,
		opts:      opts,
	}
}

// Crawl walks the result pages in order until the last page or the first
// item older than window.Earliest. Cancelling ctx stops the walk after the
// current page; work inside a page is bounded by the element timeout only.
func (p *Paginator) Crawl(ctx context.Context, page Page, query Query, window Window) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCtx := context.WithoutCancel(ctx)
	outcome := &Outcome{}

	if err := page.Open(pageCtx, query.URL(0)); err != nil {
		return nil, fmt.Errorf("%w: open search page: %v", ErrSourceUnavailable, err)
	}

	indicator, err := page.WaitForTotalIndicator(pageCtx, p.opts.ElementTimeout)
	if errors.Is(err, ErrNoMatch) {
		slog.Info("No search results", "search_phrase", query.SearchPhrase, "section", query.Section)
		outcome.NoMatches = true
		return outcome, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: total results indicator: %v", ErrSourceUnavailable, err)
	}

	total, err := ParseTotal(indicator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	outcome.Total = total

	if total == 0 {
		outcome.NoMatches = true
		return outcome, nil
	}

	slog.Debug("Search results found", "total", total, "pages", (total+p.opts.PageSize-1)/p.opts.PageSize)

	var previous time.Time
	for offset := 0; ; offset += p.opts.PageSize {
		if offset > 0 {
			if err := ctx.Err(); err != nil {
				slog.Warn("Crawl cancelled between pages", "offset", offset, "collected", len(outcome.Articles))
				outcome.EndReason = err
				return outcome, nil
			}

			if err := page.Open(pageCtx, query.URL(offset)); err != nil {
				return p.endEarly(outcome, offset, err)
			}
		}

		items, err := page.WaitForResultsList(pageCtx, p.opts.ElementTimeout)
		if err != nil && offset == 0 {
			return nil, fmt.Errorf("%w: results list: %v", ErrSourceUnavailable, err)
		}
		if err != nil {
			return p.endEarly(outcome, offset, err)
		}
		outcome.PagesVisited++

		if p.collectPage(pageCtx, page, items, query, window, offset, outcome, &previous) {
			outcome.CutoffReached = true
			slog.Debug("Cutoff reached", "offset", offset, "earliest", window.Earliest.Format(linkDateLayout))
			return outcome, nil
		}

		if offset+p.opts.PageSize >= total {
			return outcome, nil
		}
	}
}

// collectPage appends the page's items to outcome and reports whether the
// cutoff was hit.
func (p *Paginator) collectPage(ctx context.Context, page Page, items []ItemHandle, query Query, window Window, offset int, outcome *Outcome, previous *time.Time) bool {
	for _, item := range items {
		article, err := p.assembler.Assemble(ctx, page, item, query.Section)
		page.ScrollBy(ctx, p.opts.ScrollStep)

		if err != nil {
			outcome.SkippedItems++
			slog.Warn("Skipping result item", "offset", offset, "error", err)
			continue
		}

		if !previous.IsZero() && article.PublishedDate.After(*previous) {
			outcome.OutOfOrderItems++
			slog.Warn("Result out of newest-first order",
				"offset", offset,
				"link", article.SourceURL,
				"date", article.PublishedDate.Format(linkDateLayout),
				"previous", previous.Format(linkDateLayout))
		}
		*previous = article.PublishedDate

		if ShouldStop(article.PublishedDate, window.Earliest) {
			return true
		}

		outcome.Articles = append(outcome.Articles, article)
	}

	return false
}

func (p *Paginator) endEarly(outcome *Outcome, offset int, cause error) (*Outcome, error) {
	err := fmt.Errorf("%w: offset %d: %v", ErrPageRenderTimeout, offset, cause)

	if p.opts.PartialPolicy == PartialDiscard {
		return nil, err
	}

	slog.Warn("Result page failed, keeping partial results", "offset", offset, "collected", len(outcome.Articles), "error", cause)
	outcome.EndReason = err
	return outcome, nil
}

// ParseTotal reads the result count from indicator text such as
// "1 to 20 of 1,234": the last whitespace-separated token.
func ParseTotal(indicator string) (int, error) {
	fields := strings.Fields(indicator)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty total results indicator")
	}

	last := strings.ReplaceAll(fields[len(fields)-1], ",", "")
	total, err := strconv.Atoi(last)
	if err != nil || total < 0 {
		return 0, fmt.Errorf("invalid total results indicator %q", indicator)
	}

	return total, nil
}
