package crawl

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var moneyPattern = regexp.MustCompile(`(?i)` +
	`\$\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?` +
	`|` +
	`\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?\s?(?:dólares|dollars|usd)`)

// Enricher derives the phrase count and money flag from an article's title
// and description.
type Enricher struct{}

func NewEnricher() *Enricher {
	return &Enricher{}
}

func (e *Enricher) Run(articles []Article, searchPhrase string) []Article {
	enriched := make([]Article, 0, len(articles))
	for _, article := range articles {
		enriched = append(enriched, e.Enrich(article, searchPhrase))
	}
	return enriched
}

// Enrich returns a copy of article with Enrichment set. An article that
// already carries an enrichment is returned as is.
func (e *Enricher) Enrich(article Article, searchPhrase string) Article {
	if article.IsEnriched() {
		return article
	}

	text := joinText(article.Title, article.Description)

	article.Enrichment = &Enrichment{
		PhraseCount:   e.CountPhrase(text, searchPhrase),
		ContainsMoney: ContainsMoney(text),
	}

	return article
}

// CountPhrase counts non-overlapping, case-insensitive occurrences of phrase.
func (e *Enricher) CountPhrase(text, phrase string) int {
	if strings.TrimSpace(phrase) == "" {
		return 0
	}
	// cases.Caser is stateful and must not be shared between goroutines.
	fold := cases.Fold()
	return strings.Count(fold.String(text), fold.String(phrase))
}

func ContainsMoney(text string) bool {
	return moneyPattern.MatchString(text)
}

func joinText(title, description string) string {
	if description == "" {
		return title
	}
	return title + " " + description
}
