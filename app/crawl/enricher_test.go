package crawl

import (
	"testing"
)

func TestContainsMoney(t *testing.T) {
	cases := map[string]bool{
		"$1,000.50":                  true,
		"1000 USD":                   true,
		"no prices here":             false,
		"$  ":                        false,
		"$ 11,1":                     true,
		"raised 250 dólares":         true,
		"costs 12.5 dollars":         true,
		"paid 40 usd in fees":        true,
		"a $5 coffee":                true,
		"version 3.2 released today": false,
	}

	for text, expected := range cases {
		if got := ContainsMoney(text); got != expected {
			t.Errorf("ContainsMoney(%q) = %v, expected %v", text, got, expected)
		}
	}
}

func TestEnricher_CountPhrase(t *testing.T) {
	enricher := NewEnricher()

	article := enricher.Enrich(Article{
		Title:       "gemini launch",
		Description: "gemini wins award, gemini everywhere",
	}, "gemini")

	if article.Enrichment == nil {
		t.Fatal("Expected enrichment to be set")
	}
	if article.Enrichment.PhraseCount != 3 {
		t.Errorf("Expected phrase count 3, got %d", article.Enrichment.PhraseCount)
	}
	if article.Enrichment.ContainsMoney {
		t.Error("Expected no money in text")
	}
}

func TestEnricher_CountPhraseCaseInsensitive(t *testing.T) {
	enricher := NewEnricher()

	if got := enricher.CountPhrase("Gemini and GEMINI and gemini", "gemini"); got != 3 {
		t.Errorf("Expected 3 case-insensitive matches, got %d", got)
	}
	if got := enricher.CountPhrase("Artificial Intelligence rules", "artificial intelligence"); got != 1 {
		t.Errorf("Expected multi-word phrase match, got %d", got)
	}
	if got := enricher.CountPhrase("aaaa", "aa"); got != 2 {
		t.Errorf("Expected non-overlapping count 2, got %d", got)
	}
	if got := enricher.CountPhrase("anything", "  "); got != 0 {
		t.Errorf("Expected 0 for blank phrase, got %d", got)
	}
}

func TestEnricher_DoesNotCrossTitleBoundary(t *testing.T) {
	enricher := NewEnricher()

	article := enricher.Enrich(Article{Title: "gem", Description: "ini"}, "gemini")
	if article.Enrichment.PhraseCount != 0 {
		t.Errorf("Phrase must not match across title and description, got %d", article.Enrichment.PhraseCount)
	}
}

func TestEnricher_RunKeepsExistingEnrichment(t *testing.T) {
	enricher := NewEnricher()

	articles := []Article{
		{ID: "a", Title: "Deal worth $2,000"},
		{ID: "b", Title: "gemini", Enrichment: &Enrichment{PhraseCount: 42}},
	}

	enriched := enricher.Run(articles, "gemini")

	if len(enriched) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(enriched))
	}
	if !enriched[0].Enrichment.ContainsMoney {
		t.Error("Expected money to be detected in first article")
	}
	if enriched[1].Enrichment.PhraseCount != 42 {
		t.Errorf("Existing enrichment must not change, got %d", enriched[1].Enrichment.PhraseCount)
	}
	if articles[0].Enrichment != nil {
		t.Error("Run must not modify its input")
	}
}
