package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchURLBuilder renders the search URL for one result page.
type SearchURLBuilder func(searchPhrase, section string, offset int) string

type Service struct {
	browser    Browser
	repository Repository
	paginator  *Paginator
	enricher   *Enricher
	searchURL  SearchURLBuilder
	sections   []string
	now        func() time.Time
	newRunID   func() string
}

// NewService wires a crawl service. sections lists the section filters the
// source accepts; an empty list accepts any.
func NewService(browser Browser, repository Repository, paginator *Paginator, enricher *Enricher,
	searchURL SearchURLBuilder, sections []string) *Service {
	return &Service{
		browser:    browser,
		repository: repository,
		paginator:  paginator,
		enricher:   enricher,
		searchURL:  searchURL,
		sections:   sections,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// Run executes one crawl and saves its result. When the save fails the
// result is returned together with an error wrapping ErrPersistence.
func (s *Service) Run(ctx context.Context, req Request) (*RunResult, error) {
	req.SearchPhrase = strings.TrimSpace(req.SearchPhrase)
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	window, err := ComputeWindow(s.now(), req.MonthsBack)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     s.newRunID(),
		Request:   req,
		Window:    window,
		StartedAt: s.now(),
	}

	logger := slog.With("run_id", result.RunID)
	logger.Info("Run started",
		"search_phrase", req.SearchPhrase,
		"section", req.Section,
		"earliest", window.Earliest.Format(linkDateLayout),
		"latest", window.Latest.Format(linkDateLayout))

	outcome, err := s.crawl(ctx, req, window)
	if err != nil {
		logger.Error("Run failed", "error", err)
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}

	result.Articles = s.enricher.Run(outcome.Articles, req.SearchPhrase)
	result.PagesVisited = outcome.PagesVisited
	result.SkippedItems = outcome.SkippedItems
	result.OutOfOrderItems = outcome.OutOfOrderItems
	result.EndReason = outcome.EndReason

	switch {
	case outcome.EndReason != nil:
		result.Status = StatusPartial
	case outcome.NoMatches:
		result.Status = StatusNoMatches
	default:
		result.Status = StatusComplete
	}
	result.FinishedAt = s.now()

	// A cancelled run still saves what it collected.
	if err := s.repository.Save(context.WithoutCancel(ctx), result); err != nil {
		logger.Error("Saving run failed", "error", err)
		return result, fmt.Errorf("%w: run %s: %w", ErrPersistence, result.RunID, err)
	}

	logger.Info("Run finished",
		"status", string(result.Status),
		"articles", len(result.Articles),
		"pages", result.PagesVisited,
		"skipped", result.SkippedItems,
		"duration", result.Duration())

	return result, nil
}

func (s *Service) Validate(req Request) error {
	if strings.TrimSpace(req.SearchPhrase) == "" {
		return fmt.Errorf("%w: search phrase is required", ErrInvalidArgument)
	}
	if req.MonthsBack < 0 {
		return fmt.Errorf("%w: number of months must be non-negative, got %d", ErrInvalidArgument, req.MonthsBack)
	}
	if len(s.sections) > 0 && !slices.Contains(s.sections, req.Section) {
		return fmt.Errorf("%w: unknown section %q, expected one of %v", ErrInvalidArgument, req.Section, s.sections)
	}
	return nil
}

func (s *Service) crawl(ctx context.Context, req Request, window Window) (*Outcome, error) {
	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open browsing session: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Warn("Failed to close browsing session", "error", err)
		}
	}()

	query := Query{
		SearchPhrase: req.SearchPhrase,
		Section:      req.Section,
		URL: func(offset int) string {
			return s.searchURL(req.SearchPhrase, req.Section, offset)
		},
	}

	return s.paginator.Crawl(ctx, page, query, window)
}
