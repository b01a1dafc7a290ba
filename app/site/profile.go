package site

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/lysyi3m/news-comb/app/crawl"
)

const XPathPrefix = "xpath:"

// BuildSearchURL fills the {query}, {section} and {offset} placeholders of
// the profile's search URL.
func (p *Profile) BuildSearchURL(searchPhrase, section string, offset int) string {
	replacer := strings.NewReplacer(
		"{query}", url.QueryEscape(strings.Join(strings.Fields(searchPhrase), " ")),
		"{section}", url.QueryEscape(section),
		"{offset}", strconv.Itoa(offset),
	)
	return replacer.Replace(p.SearchURL)
}

// FieldSelector returns the selector for an item field and whether the
// profile defines one.
func (s Selectors) FieldSelector(field crawl.Field) (string, bool) {
	var selector string
	switch field {
	case crawl.FieldTitle:
		selector = s.Title
	case crawl.FieldLink:
		selector = s.Link
	case crawl.FieldSectionLabel:
		selector = s.SectionLabel
	case crawl.FieldImageSrc:
		selector = s.Image
	case crawl.FieldDescription:
		selector = s.Description
	}
	return selector, selector != ""
}

func (s Selectors) All() []string {
	return []string{
		s.TotalIndicator, s.NoResults, s.ResultsList,
		s.Title, s.Link, s.SectionLabel, s.Image, s.Description,
	}
}

func IsXPath(selector string) bool {
	return strings.HasPrefix(selector, XPathPrefix)
}

func TrimXPath(selector string) string {
	return strings.TrimPrefix(selector, XPathPrefix)
}
