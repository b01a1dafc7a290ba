package browser

import (
	"fmt"
	"time"

	"github.com/lysyi3m/news-comb/app/crawl"
	"github.com/lysyi3m/news-comb/app/site"
)

const (
	BackendRod    = "rod"
	BackendStatic = "static"

	DefaultPageTimeout = 50 * time.Second
)

type Options struct {
	Headless    bool
	BrowserBin  string
	PageTimeout time.Duration
	UserAgent   string
}

func (o Options) withDefaults() Options {
	if o.PageTimeout <= 0 {
		o.PageTimeout = DefaultPageTimeout
	}
	return o
}

// New builds the backend named by backend for the given site selectors.
func New(backend string, selectors site.Selectors, options Options) (crawl.Browser, error) {
	switch backend {
	case BackendRod:
		return NewRodBrowser(selectors, options)
	case BackendStatic:
		return NewStaticBrowser(selectors, options)
	default:
		return nil, fmt.Errorf("unknown browser backend '%s'", backend)
	}
}
