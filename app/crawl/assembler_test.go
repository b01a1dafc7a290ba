package crawl

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestParseLinkDate(t *testing.T) {
	date, err := ParseLinkDate("https://www.reuters.com/technology/google-unveils-gemini-2024-08-15/")
	if err != nil {
		t.Fatal(err)
	}
	if expected := time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC); !date.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, date)
	}

	if _, err := ParseLinkDate("https://www.reuters.com/technology/google-unveils-gemini-2024-08-15"); err != nil {
		t.Errorf("Link without trailing slash should parse, got %v", err)
	}
}

func TestParseLinkDate_Invalid(t *testing.T) {
	links := []string{
		"",
		"https://www.reuters.com/markets/",
		"https://www.reuters.com/markets/some-story-without-date/",
		"https://www.reuters.com/markets/story-2024-13-40/",
	}

	for _, link := range links {
		if _, err := ParseLinkDate(link); !errors.Is(err, ErrDateParse) {
			t.Errorf("ParseLinkDate(%q): expected ErrDateParse, got %v", link, err)
		}
	}
}

func TestAssembler_Assemble(t *testing.T) {
	page := &fakePage{pageSize: 20, items: []fakeItem{{fields: map[Field]string{
		FieldTitle:        "  Gemini launch  ",
		FieldLink:         "https://news.example.com/tech/gemini-launch-2024-08-15/",
		FieldSectionLabel: "Technology",
		FieldImageSrc:     "https://img.example.com/1.jpg",
		FieldDescription:  "Google ships Gemini",
	}}}}
	if err := page.Open(context.Background(), testURL("gemini", "all", 0)); err != nil {
		t.Fatal(err)
	}

	assembler := NewAssembler("thumbnails")
	assembler.newID = func() string { return "fixed-id" }

	article, err := assembler.Assemble(context.Background(), page, 0, "technology")
	if err != nil {
		t.Fatal(err)
	}

	if article.ID != "fixed-id" {
		t.Errorf("Expected ID 'fixed-id', got '%s'", article.ID)
	}
	if article.Title != "Gemini launch" {
		t.Errorf("Expected trimmed title, got '%s'", article.Title)
	}
	if article.ThumbnailPath != filepath.Join("thumbnails", "fixed-id.png") {
		t.Errorf("Unexpected thumbnail path '%s'", article.ThumbnailPath)
	}
	if article.ExtractedSection == nil || *article.ExtractedSection != "Technology" {
		t.Errorf("Expected extracted section 'Technology', got %v", article.ExtractedSection)
	}
	if article.SelectedSection != "technology" {
		t.Errorf("Expected selected section 'technology', got '%s'", article.SelectedSection)
	}
	if article.Description != "Google ships Gemini" {
		t.Errorf("Unexpected description '%s'", article.Description)
	}
	if article.IsEnriched() {
		t.Error("Assembled article must not be enriched")
	}
}

func TestAssembler_MissingOptionalFields(t *testing.T) {
	page := &fakePage{pageSize: 20, items: []fakeItem{{fields: map[Field]string{
		FieldTitle: "Gemini launch",
		FieldLink:  "https://news.example.com/tech/gemini-launch-2024-08-15/",
	}}}}
	if err := page.Open(context.Background(), testURL("gemini", "all", 0)); err != nil {
		t.Fatal(err)
	}

	article, err := NewAssembler("thumbnails").Assemble(context.Background(), page, 0, "all")
	if err != nil {
		t.Fatal(err)
	}

	if article.ExtractedSection != nil {
		t.Errorf("Expected nil section, got %q", *article.ExtractedSection)
	}
	if article.Description != "" || article.ImageURL != "" {
		t.Errorf("Expected empty description and image, got %q and %q", article.Description, article.ImageURL)
	}
}

func TestAssembler_UniqueIDs(t *testing.T) {
	page := &fakePage{pageSize: 20, items: []fakeItem{newsItem(0, "2024-08-15"), newsItem(1, "2024-08-14")}}
	if err := page.Open(context.Background(), testURL("gemini", "all", 0)); err != nil {
		t.Fatal(err)
	}

	assembler := NewAssembler("thumbnails")
	first, err := assembler.Assemble(context.Background(), page, 0, "all")
	if err != nil {
		t.Fatal(err)
	}
	second, err := assembler.Assemble(context.Background(), page, 1, "all")
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected distinct non-empty IDs, got '%s' and '%s'", first.ID, second.ID)
	}
}

func TestAssembler_Errors(t *testing.T) {
	page := &fakePage{pageSize: 20, items: []fakeItem{
		{fields: map[Field]string{FieldTitle: "No link"}},
		{fields: map[Field]string{FieldLink: "https://news.example.com/a-2024-08-15/"}},
		{fields: map[Field]string{FieldTitle: "Bad date", FieldLink: "https://news.example.com/a-b-c/"}},
	}}
	if err := page.Open(context.Background(), testURL("gemini", "all", 0)); err != nil {
		t.Fatal(err)
	}

	assembler := NewAssembler("thumbnails")
	expected := []error{ErrFieldNotFound, ErrFieldNotFound, ErrDateParse}

	for i, want := range expected {
		_, err := assembler.Assemble(context.Background(), page, ItemHandle(i), "all")

		var itemErr *ItemError
		if !errors.As(err, &itemErr) {
			t.Fatalf("Item %d: expected *ItemError, got %v", i, err)
		}
		if !errors.Is(err, want) {
			t.Errorf("Item %d: expected %v, got %v", i, want, err)
		}
	}
}

func TestAssembler_OptionalFieldFailure(t *testing.T) {
	page := &fakePage{
		pageSize:  20,
		items:     []fakeItem{newsItem(0, "2024-08-15")},
		fieldErrs: map[Field]error{FieldSectionLabel: ErrTimeout},
	}
	if err := page.Open(context.Background(), testURL("gemini", "all", 0)); err != nil {
		t.Fatal(err)
	}

	_, err := NewAssembler("thumbnails").Assemble(context.Background(), page, 0, "all")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected read failure other than not-found to fail the item, got %v", err)
	}
}
