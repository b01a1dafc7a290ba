package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type fakeItem struct {
	fields map[Field]string
}

func newsItem(i int, date string) fakeItem {
	return fakeItem{fields: map[Field]string{
		FieldTitle:    fmt.Sprintf("Story %d", i),
		FieldLink:     fmt.Sprintf("https://news.example.com/world/story-%d-%s/", i, date),
		FieldImageSrc: fmt.Sprintf("https://img.example.com/%d.jpg", i),
	}}
}

// fakePage serves items in pages of pageSize, keyed by the offset query
// parameter of the opened URL.
type fakePage struct {
	items     []fakeItem
	pageSize  int
	total     string
	totalErr  error
	failAt    map[int]error
	openErr   error
	onOpen    func(offset int)
	opened    []int
	current   []fakeItem
	scrolled  int
	closed    bool
	closeErr  error
	fieldErrs map[Field]error
}

func (p *fakePage) Open(ctx context.Context, rawURL string) error {
	if p.openErr != nil {
		return p.openErr
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	offset, err := strconv.Atoi(u.Query().Get("offset"))
	if err != nil {
		return err
	}

	p.opened = append(p.opened, offset)
	if p.onOpen != nil {
		p.onOpen(offset)
	}

	if err := p.failAt[offset]; err != nil {
		p.current = nil
		return err
	}

	end := min(offset+p.pageSize, len(p.items))
	if offset >= len(p.items) {
		p.current = nil
	} else {
		p.current = p.items[offset:end]
	}
	return nil
}

func (p *fakePage) WaitForTotalIndicator(ctx context.Context, timeout time.Duration) (string, error) {
	if p.totalErr != nil {
		return "", p.totalErr
	}
	if p.total != "" {
		return p.total, nil
	}
	return fmt.Sprintf("1 to %d of %d", min(p.pageSize, len(p.items)), len(p.items)), nil
}

func (p *fakePage) WaitForResultsList(ctx context.Context, timeout time.Duration) ([]ItemHandle, error) {
	if p.current == nil {
		return nil, ErrTimeout
	}
	handles := make([]ItemHandle, len(p.current))
	for i := range p.current {
		handles[i] = ItemHandle(i)
	}
	return handles, nil
}

func (p *fakePage) ItemField(ctx context.Context, item ItemHandle, field Field) (string, error) {
	if err := p.fieldErrs[field]; err != nil {
		return "", err
	}
	if int(item) >= len(p.current) {
		return "", ErrFieldNotFound
	}
	value, ok := p.current[item].fields[field]
	if !ok {
		return "", ErrFieldNotFound
	}
	return value, nil
}

func (p *fakePage) ScrollBy(ctx context.Context, pixels int) {
	p.scrolled += pixels
}

func (p *fakePage) Close() error {
	p.closed = true
	return p.closeErr
}

type fakeBrowser struct {
	page    *fakePage
	pageErr error
	opened  int
}

func (b *fakeBrowser) NewPage(ctx context.Context) (Page, error) {
	b.opened++
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	return nil
}

type fakeRepository struct {
	saved []*RunResult
	err   error
}

func (r *fakeRepository) Save(ctx context.Context, result *RunResult) error {
	r.saved = append(r.saved, result)
	return r.err
}

func testURL(searchPhrase, section string, offset int) string {
	return fmt.Sprintf("https://news.example.com/search?query=%s&section=%s&offset=%d",
		url.QueryEscape(searchPhrase), section, offset)
}

func testQuery() Query {
	return Query{
		SearchPhrase: "gemini",
		Section:      "all",
		URL: func(offset int) string {
			return testURL("gemini", "all", offset)
		},
	}
}

var errBoom = errors.New("boom")
