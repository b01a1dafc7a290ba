package browser

import (
	"context"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
)

func newTestRodBrowser(t *testing.T) *RodBrowser {
	t.Helper()

	bin, found := launcher.LookPath()
	if !found {
		t.Skip("no local Chrome found")
	}

	b, err := NewRodBrowser(testSelectors, Options{Headless: true, BrowserBin: bin})
	if err != nil {
		t.Skipf("Chrome could not be started: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestRodPageSurvivesCancelledContext(t *testing.T) {
	b := newTestRodBrowser(t)

	ctx, cancel := context.WithCancel(context.Background())
	page, err := b.NewPage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	rodPage := page.(*RodPage)
	if err := rodPage.page.Mouse.Scroll(0, 100, 1); err != nil {
		t.Errorf("Expected scrolling to work after cancel, got %v", err)
	}
	if err := page.Close(); err != nil {
		t.Errorf("Expected page to close after cancel, got %v", err)
	}
}

func TestRodNewPageWithCancelledContext(t *testing.T) {
	b := newTestRodBrowser(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.NewPage(ctx); err == nil {
		t.Error("Expected error for a context cancelled before the page was opened")
	}
}
