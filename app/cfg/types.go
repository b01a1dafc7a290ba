package cfg

import (
	"time"
)

const (
	CommandCrawl = "crawl"
	CommandServe = "serve"
)

type Cfg struct {
	Command string

	// Storage
	DBPath        string
	OutputDir     string
	ThumbnailsDir string
	Stores        []string

	// Source site and rendering
	SitesDir       string
	Site           string
	Backend        string
	BrowserBin     string
	Headless       bool
	ElementTimeout time.Duration
	PageTimeout    time.Duration
	ScrollStep     int
	PartialPolicy  string

	// HTTP server
	Port         string
	BaseUrl      string
	WorkerCount  int
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string

	Crawl CrawlCfg
}

// CrawlCfg is the request of a one-off crawl command.
type CrawlCfg struct {
	SearchPhrase   string
	MonthsBack     int
	Section        string
	SkipThumbnails bool
}

// HasStore reports whether store is one of the configured stores.
func (c *Cfg) HasStore(store string) bool {
	for _, s := range c.Stores {
		if s == store {
			return true
		}
	}
	return false
}
