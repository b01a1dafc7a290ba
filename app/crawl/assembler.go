package crawl

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const linkDateLayout = "2006-01-02"

type Assembler struct {
	thumbnailDir string
	newID        func() string
}

func NewAssembler(thumbnailDir string) *Assembler {
	return &Assembler{
		thumbnailDir: thumbnailDir,
		newID:        uuid.NewString,
	}
}

// Assemble reads one result item into an Article. Failures are returned as
// *ItemError so the caller can skip the item.
func (a *Assembler) Assemble(ctx context.Context, page Page, item ItemHandle, selectedSection string) (Article, error) {
	link, err := page.ItemField(ctx, item, FieldLink)
	if err != nil {
		return Article{}, &ItemError{Index: int(item), Err: fmt.Errorf("link: %w", err)}
	}

	published, err := ParseLinkDate(link)
	if err != nil {
		return Article{}, &ItemError{Index: int(item), Link: link, Err: err}
	}

	title, err := page.ItemField(ctx, item, FieldTitle)
	if err != nil {
		return Article{}, &ItemError{Index: int(item), Link: link, Err: fmt.Errorf("title: %w", err)}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Article{}, &ItemError{Index: int(item), Link: link, Err: fmt.Errorf("title: %w", ErrFieldNotFound)}
	}

	section, err := optionalField(ctx, page, item, FieldSectionLabel)
	if err != nil {
		return Article{}, &ItemError{Index: int(item), Link: link, Err: err}
	}

	var extractedSection *string
	if section != "" {
		extractedSection = &section
	}

	imageURL, err := optionalField(ctx, page, item, FieldImageSrc)
	if err != nil {
		return Article{}, &ItemError{Index: int(item), Link: link, Err: err}
	}

	description, err := optionalField(ctx, page, item, FieldDescription)
	if err != nil {
		return Article{}, &ItemError{Index: int(item), Link: link, Err: err}
	}

	id := a.newID()

	return Article{
		ID:               id,
		Title:            title,
		PublishedDate:    published,
		SourceURL:        link,
		ImageURL:         imageURL,
		ThumbnailPath:    filepath.Join(a.thumbnailDir, id+".png"),
		ExtractedSection: extractedSection,
		SelectedSection:  selectedSection,
		Description:      description,
	}, nil
}

// optionalField maps ErrFieldNotFound to an empty value.
func optionalField(ctx context.Context, page Page, item ItemHandle, field Field) (string, error) {
	value, err := page.ItemField(ctx, item, field)
	if errors.Is(err, ErrFieldNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return strings.TrimSpace(value), nil
}

// ParseLinkDate extracts the publication date from a link whose slug ends in
// YYYY-MM-DD, e.g. https://www.reuters.com/technology/gemini-launch-2024-08-15/.
func ParseLinkDate(link string) (time.Time, error) {
	segments := strings.Split(link, "-")
	if len(segments) < 3 {
		return time.Time{}, fmt.Errorf("%w: no date in link %q", ErrDateParse, link)
	}

	raw := strings.TrimSuffix(strings.Join(segments[len(segments)-3:], "-"), "/")

	date, err := time.Parse(linkDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrDateParse, raw, err)
	}

	return date, nil
}
