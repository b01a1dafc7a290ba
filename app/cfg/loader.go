package cfg

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const (
	StoreSQLite = "sqlite"
	StoreCSV    = "csv"

	defaultSection = "all"
)

type rawCfg struct {
	// Storage configuration
	DBPath        string   `long:"db-path" env:"DB_PATH" default:"./data/news-comb.db" description:"SQLite database file"`
	OutputDir     string   `long:"output-dir" env:"OUTPUT_DIR" default:"./output" description:"Directory for exported run files"`
	ThumbnailsDir string   `long:"thumbnails-dir" env:"THUMBNAILS_DIR" default:"./output/thumbnails" description:"Directory for downloaded article images"`
	Stores        []string `long:"store" env:"STORE" env-delim:"," default:"sqlite" default:"csv" description:"Where runs are saved (sqlite, csv); repeatable"`

	// Source configuration
	SitesDir       string        `long:"sites-dir" env:"SITES_DIR" default:"./sites" description:"Directory with site profile overrides"`
	Site           string        `long:"site" env:"SITE" default:"reuters" description:"Site profile to crawl"`
	Backend        string        `long:"backend" env:"BACKEND" default:"rod" choice:"rod" choice:"static" description:"Page rendering backend"`
	BrowserBin     string        `long:"browser-bin" env:"BROWSER_BIN" description:"Chrome binary (downloaded automatically when empty)"`
	ShowBrowser    bool          `long:"show-browser" env:"SHOW_BROWSER" description:"Run the browser with a visible window"`
	ElementTimeout time.Duration `long:"element-timeout" env:"ELEMENT_TIMEOUT" default:"10s" description:"Wait for page elements"`
	PageTimeout    time.Duration `long:"page-timeout" env:"PAGE_TIMEOUT" default:"50s" description:"Wait for a page to load"`
	ScrollStep     int           `long:"scroll-step" env:"SCROLL_STEP" default:"400" description:"Pixels scrolled after each result"`
	PartialPolicy  string        `long:"partial-policy" env:"PARTIAL_POLICY" default:"keep" choice:"keep" choice:"discard" description:"What to do with results when a later page fails"`

	// Server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for crawl tasks"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Crawl rawCrawlCfg `command:"crawl" description:"Run one search and save the results"`
	Serve struct{}    `command:"serve" description:"Serve run feeds and accept crawl requests over HTTP"`
}

type rawCrawlCfg struct {
	Phrase         string `long:"phrase" description:"Search phrase"`
	Months         int    `long:"months" description:"Months to cover, counting the current one (0 and 1 mean this month)"`
	Section        string `long:"section" description:"Site section to search in (default: all)"`
	Payload        string `long:"payload" description:"JSON work item with search_phrase, date_option and section"`
	SkipThumbnails bool   `long:"skip-thumbnails" description:"Do not download article images"`
}

// payload is the work item format: {"search_phrase", "date_option", "section"}.
type payload struct {
	SearchPhrase string      `json:"search_phrase"`
	DateOption   json.Number `json:"date_option"`
	Section      string      `json:"section"`
}

// Load parses args (without the program name). It returns nil, nil when
// help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		OutputDir:      raw.OutputDir,
		ThumbnailsDir:  raw.ThumbnailsDir,
		Stores:         normalizeStores(raw.Stores),
		SitesDir:       raw.SitesDir,
		Site:           raw.Site,
		Backend:        raw.Backend,
		BrowserBin:     raw.BrowserBin,
		Headless:       !raw.ShowBrowser,
		ElementTimeout: raw.ElementTimeout,
		PageTimeout:    raw.PageTimeout,
		ScrollStep:     raw.ScrollStep,
		PartialPolicy:  raw.PartialPolicy,
		Port:           raw.Port,
		BaseUrl:        strings.TrimSuffix(raw.BaseUrl, "/"),
		WorkerCount:    raw.WorkerCount,
		APIAccessKey:   raw.APIAccessKey,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if parser.Active != nil {
		cfg.Command = parser.Active.Name
	}

	if cfg.Command == CommandCrawl {
		crawlCfg, err := loadCrawl(parser.Active, raw.Crawl)
		if err != nil {
			return nil, err
		}
		cfg.Crawl = crawlCfg
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadCrawl merges the payload file with the crawl flags; flags given on the
// command line win.
func loadCrawl(command *flags.Command, raw rawCrawlCfg) (CrawlCfg, error) {
	crawlCfg := CrawlCfg{
		SearchPhrase:   raw.Phrase,
		MonthsBack:     raw.Months,
		Section:        raw.Section,
		SkipThumbnails: raw.SkipThumbnails,
	}

	if raw.Payload != "" {
		item, err := readPayload(raw.Payload)
		if err != nil {
			return CrawlCfg{}, err
		}

		if !isSet(command, "phrase") && item.SearchPhrase != "" {
			crawlCfg.SearchPhrase = item.SearchPhrase
		}
		if !isSet(command, "section") && item.Section != "" {
			crawlCfg.Section = item.Section
		}
		if !isSet(command, "months") && item.DateOption != "" {
			months, err := item.DateOption.Int64()
			if err != nil {
				return CrawlCfg{}, fmt.Errorf("invalid date_option in %s: %w", raw.Payload, err)
			}
			crawlCfg.MonthsBack = int(months)
		}
	}

	crawlCfg.Section = cmp.Or(crawlCfg.Section, defaultSection)

	return crawlCfg, nil
}

func readPayload(path string) (*payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var item payload
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to parse payload %s: %w", path, err)
	}

	return &item, nil
}

func isSet(command *flags.Command, longName string) bool {
	option := command.FindOptionByLongName(longName)
	return option != nil && option.IsSet()
}

func normalizeStores(stores []string) []string {
	var normalized []string
	for _, store := range stores {
		for _, part := range strings.Split(store, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" && !slices.Contains(normalized, part) {
				normalized = append(normalized, part)
			}
		}
	}
	return normalized
}

func validate(cfg *Cfg) error {
	if len(cfg.Stores) == 0 {
		return fmt.Errorf("at least one store is required")
	}
	for _, store := range cfg.Stores {
		if store != StoreSQLite && store != StoreCSV {
			return fmt.Errorf("unknown store '%s', expected sqlite or csv", store)
		}
	}
	if cfg.Command == CommandServe && !cfg.HasStore(StoreSQLite) {
		return fmt.Errorf("serve needs the sqlite store")
	}

	if cfg.ElementTimeout <= 0 {
		return fmt.Errorf("element timeout must be positive")
	}
	if cfg.PageTimeout <= 0 {
		return fmt.Errorf("page timeout must be positive")
	}
	if cfg.ScrollStep < 0 {
		return fmt.Errorf("scroll step must not be negative")
	}
	if cfg.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}

	return nil
}

// ApplyTimezone sets time.Local to the configured zone.
func ApplyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
