package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/site"
)

// StaticBrowser fetches result pages over plain HTTP and queries the served
// HTML with CSS selectors. Nothing renders after the fetch, so a missing
// element is reported as a timeout right away.
type StaticBrowser struct {
	client    *http.Client
	selectors site.Selectors
	options   Options
}

func NewStaticBrowser(selectors site.Selectors, options Options) (*StaticBrowser, error) {
	for _, selector := range selectors.All() {
		if site.IsXPath(selector) {
			return nil, fmt.Errorf("static backend supports CSS selectors only, got '%s'", selector)
		}
	}

	options = options.withDefaults()

	return &StaticBrowser{
		client:    &http.Client{Timeout: options.PageTimeout},
		selectors: selectors,
		options:   options,
	}, nil
}

func (b *StaticBrowser) NewPage(ctx context.Context) (crawl.Page, error) {
	return &StaticPage{browser: b}, nil
}

func (b *StaticBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

type StaticPage struct {
	browser *StaticBrowser
	baseURL *url.URL
	doc     *goquery.Document
	items   []*goquery.Selection
}

func (p *StaticPage) Open(ctx context.Context, rawURL string) error {
	p.doc = nil
	p.items = nil

	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid page URL %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if p.browser.options.UserAgent != "" {
		req.Header.Set("User-Agent", p.browser.options.UserAgent)
	}

	resp, err := p.browser.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, timeoutError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}

	p.baseURL = baseURL
	p.doc = doc
	return nil
}

func (p *StaticPage) WaitForTotalIndicator(ctx context.Context, timeout time.Duration) (string, error) {
	if p.doc == nil {
		return "", crawl.ErrTimeout
	}
	selectors := p.browser.selectors

	if total := p.doc.Find(selectors.TotalIndicator).First(); total.Length() > 0 {
		return strings.TrimSpace(total.Text()), nil
	}

	if selectors.NoResults != "" {
		marker := p.doc.Find(selectors.NoResults).First()
		if marker.Length() > 0 && strings.Contains(marker.Text(), selectors.NoResultsText) {
			return "", crawl.ErrNoMatch
		}
	}

	return "", crawl.ErrTimeout
}

func (p *StaticPage) WaitForResultsList(ctx context.Context, timeout time.Duration) ([]crawl.ItemHandle, error) {
	if p.doc == nil {
		return nil, crawl.ErrTimeout
	}

	list := p.doc.Find(p.browser.selectors.ResultsList)
	if list.Length() == 0 {
		return nil, crawl.ErrTimeout
	}

	p.items = make([]*goquery.Selection, 0, list.Length())
	handles := make([]crawl.ItemHandle, 0, list.Length())
	list.Each(func(i int, s *goquery.Selection) {
		p.items = append(p.items, s)
		handles = append(handles, crawl.ItemHandle(i))
	})

	return handles, nil
}

func (p *StaticPage) ItemField(ctx context.Context, item crawl.ItemHandle, field crawl.Field) (string, error) {
	selector, ok := p.browser.selectors.FieldSelector(field)
	if !ok || int(item) < 0 || int(item) >= len(p.items) {
		return "", crawl.ErrFieldNotFound
	}

	el := p.items[item].Find(selector).First()
	if el.Length() == 0 {
		return "", crawl.ErrFieldNotFound
	}

	switch field {
	case crawl.FieldLink:
		return p.resolveAttr(el, "href")
	case crawl.FieldImageSrc:
		return p.resolveAttr(el, "src")
	default:
		return strings.TrimSpace(el.Text()), nil
	}
}

// ScrollBy is a no-op: the whole document is already loaded.
func (p *StaticPage) ScrollBy(ctx context.Context, pixels int) {}

func (p *StaticPage) Close() error {
	p.doc = nil
	p.items = nil
	return nil
}

func (p *StaticPage) resolveAttr(el *goquery.Selection, name string) (string, error) {
	value, ok := el.Attr(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", crawl.ErrFieldNotFound
	}

	ref, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid %s '%s': %w", name, value, err)
	}
	return p.baseURL.ResolveReference(ref).String(), nil
}
