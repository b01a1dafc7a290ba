package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/site"
)

// RodBrowser renders pages in a headless Chrome driven over the DevTools
// protocol.
type RodBrowser struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	selectors site.Selectors
	options   Options
}

// NewRodBrowser launches Chrome (options.BrowserBin, or the one rod
// downloads) and connects to it.
func NewRodBrowser(selectors site.Selectors, options Options) (*RodBrowser, error) {
	options = options.withDefaults()

	l := launcher.New().Headless(options.Headless)
	if options.BrowserBin != "" {
		l = l.Bin(options.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	slog.Debug("Browser started", "headless", options.Headless, "bin", options.BrowserBin)

	return &RodBrowser{
		browser:   browser,
		launcher:  l,
		selectors: selectors,
		options:   options,
	}, nil
}

// NewPage opens a tab that outlives ctx so Close and ScrollBy still work
// after cancellation. Per-call contexts bound the page operations.
func (b *RodBrowser) NewPage(ctx context.Context) (crawl.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := b.browser.Context(context.WithoutCancel(ctx)).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if b.options.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.options.UserAgent})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	return &RodPage{
		page:      page,
		selectors: b.selectors,
		options:   b.options,
	}, nil
}

func (b *RodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

type RodPage struct {
	page      *rod.Page
	selectors site.Selectors
	options   Options
	items     rod.Elements
}

func (p *RodPage) Open(ctx context.Context, url string) error {
	p.items = nil

	page := p.page.Context(ctx).Timeout(p.options.PageTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, timeoutError(err))
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, timeoutError(err))
	}

	return nil
}

func (p *RodPage) WaitForTotalIndicator(ctx context.Context, timeout time.Duration) (string, error) {
	var text string
	var noMatch bool

	race := p.page.Context(ctx).Timeout(timeout).Race()
	race = raceElement(race, p.selectors.TotalIndicator).Handle(func(el *rod.Element) error {
		t, err := el.Text()
		text = t
		return err
	})

	if p.selectors.NoResults != "" {
		if p.selectors.NoResultsText != "" && !site.IsXPath(p.selectors.NoResults) {
			race = race.ElementR(p.selectors.NoResults, regexp.QuoteMeta(p.selectors.NoResultsText))
		} else {
			race = raceElement(race, p.selectors.NoResults)
		}
		race = race.Handle(func(*rod.Element) error {
			noMatch = true
			return nil
		})
	}

	if _, err := race.Do(); err != nil {
		return "", timeoutError(err)
	}
	if noMatch {
		return "", crawl.ErrNoMatch
	}

	return strings.TrimSpace(text), nil
}

func (p *RodPage) WaitForResultsList(ctx context.Context, timeout time.Duration) ([]crawl.ItemHandle, error) {
	page := p.page.Context(ctx).Timeout(timeout)
	selector := p.selectors.ResultsList

	var err error
	if site.IsXPath(selector) {
		if _, err = page.ElementX(site.TrimXPath(selector)); err == nil {
			p.items, err = p.page.Context(ctx).ElementsX(site.TrimXPath(selector))
		}
	} else {
		if _, err = page.Element(selector); err == nil {
			p.items, err = p.page.Context(ctx).Elements(selector)
		}
	}
	if err != nil {
		p.items = nil
		return nil, timeoutError(err)
	}

	handles := make([]crawl.ItemHandle, len(p.items))
	for i := range p.items {
		handles[i] = crawl.ItemHandle(i)
	}
	return handles, nil
}

func (p *RodPage) ItemField(ctx context.Context, item crawl.ItemHandle, field crawl.Field) (string, error) {
	selector, ok := p.selectors.FieldSelector(field)
	if !ok || int(item) < 0 || int(item) >= len(p.items) {
		return "", crawl.ErrFieldNotFound
	}

	root := p.items[item].Context(ctx)

	var found bool
	var el *rod.Element
	var err error
	if site.IsXPath(selector) {
		found, el, err = root.HasX(site.TrimXPath(selector))
	} else {
		found, el, err = root.Has(selector)
	}
	if err != nil {
		return "", timeoutError(err)
	}
	if !found {
		return "", crawl.ErrFieldNotFound
	}

	switch field {
	case crawl.FieldLink:
		return elementProperty(el, "href")
	case crawl.FieldImageSrc:
		return elementProperty(el, "src")
	default:
		text, err := el.Text()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
}

// ScrollBy turns the mouse wheel so lazily rendered entries load.
func (p *RodPage) ScrollBy(ctx context.Context, pixels int) {
	if err := p.page.Mouse.Scroll(0, float64(pixels), 1); err != nil {
		slog.Debug("Scroll failed", "error", err)
	}
}

func (p *RodPage) Close() error {
	p.items = nil
	return p.page.Close()
}

func raceElement(race *rod.RaceContext, selector string) *rod.RaceContext {
	if site.IsXPath(selector) {
		return race.ElementX(site.TrimXPath(selector))
	}
	return race.Element(selector)
}

func elementProperty(el *rod.Element, name string) (string, error) {
	value, err := el.Property(name)
	if err != nil {
		return "", err
	}
	str := strings.TrimSpace(value.Str())
	if str == "" {
		return "", crawl.ErrFieldNotFound
	}
	return str, nil
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", crawl.ErrTimeout, err)
	}
	return err
}
