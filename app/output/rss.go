package output

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/lysyi3m/news-comb/app/crawl"
)

// Generator renders a run's articles as an RSS 2.0 channel.
type Generator struct {
	baseURL string
	port    string
	version string
}

func NewGenerator(baseURL, port, version string) *Generator {
	return &Generator{
		baseURL: baseURL,
		port:    port,
		version: version,
	}
}

func (g *Generator) Run(run *crawl.RunResult) (string, error) {
	if run == nil {
		return "", fmt.Errorf("run is required")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	selfLink := g.FeedURL(run.RunID)

	g.writeElement(&buf, "title", fmt.Sprintf("%s in %s", run.Request.SearchPhrase, run.Request.Section), 4)
	g.writeElement(&buf, "link", selfLink, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Search results for '%s' published from %s to the end of %s",
		run.Request.SearchPhrase, run.Window.Earliest.Format("January 2006"), run.Window.Latest.Format("January 2006")), 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := cmp.Or(run.FinishedAt, time.Now())
	if len(run.Articles) > 0 {
		lastBuildDate = run.Articles[0].PublishedDate
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("News-Comb/%s", g.version), 4)

	for _, article := range run.Articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

// FeedURL is the public address of a run's feed.
func (g *Generator) FeedURL(runID string) string {
	if g.baseURL != "" {
		return fmt.Sprintf("%s/runs/%s/feed", g.baseURL, runID)
	}
	return fmt.Sprintf("http://localhost:%s/runs/%s/feed", g.port, runID)
}

func (g *Generator) writeItem(buf *bytes.Buffer, article crawl.Article) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(article.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", article.SourceURL, 6)
	g.writeElement(buf, "description", cmp.Or(article.Description, "No description available"), 6)
	g.writeElement(buf, "pubDate", article.PublishedDate.Format(time.RFC1123Z), 6)

	if article.ExtractedSection != nil {
		g.writeElement(buf, "category", *article.ExtractedSection, 6)
	}
	if article.Enrichment != nil && article.Enrichment.ContainsMoney {
		g.writeElement(buf, "category", "money", 6)
	}

	if enclosureType := imageType(article.ImageURL); enclosureType != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(article.ImageURL),
			html.EscapeString(enclosureType)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func imageType(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	u, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}
	return mime.TypeByExtension(path.Ext(u.Path))
}
