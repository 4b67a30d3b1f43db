package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestSaveAndLoadPageMetadata(t *testing.T) {
	tempDir := t.TempDir()

	metadata := PageMetadata{
		URL:        "https://www.trustpilot.com/review/example.com",
		Title:      "Example Reviews",
		RecordedAt: testNow,
	}
	filename := filepath.Join(tempDir, "1.html")

	if err := savePageMetadata(filename, metadata); err != nil {
		t.Fatalf("Failed to save metadata: %v", err)
	}
	loaded, err := loadPageMetadata(filename)
	if err != nil {
		t.Fatalf("Failed to load metadata: %v", err)
	}
	if diff := cmp.Diff(metadata, loaded); diff != "" {
		t.Errorf("Metadata mismatch (-expected +got):\n%s", diff)
	}
}

func TestLoadPageMetadata_Errors(t *testing.T) {
	if _, err := loadPageMetadata("/non/existent/file.html"); err == nil {
		t.Error("Expected error when loading non-existent file")
	}

	filename := filepath.Join(t.TempDir(), "invalid.html")
	if err := os.WriteFile(filename+MetadataFileExtension, []byte("invalid json"), 0644); err != nil {
		t.Fatalf("Failed to write invalid JSON file: %v", err)
	}
	if _, err := loadPageMetadata(filename); err == nil {
		t.Error("Expected error when loading invalid JSON")
	}
}

func TestRecordAndReplay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "example.com")
	session := newFakeSession(
		listingHtml("Example Ltd", 20, "enabled"),
		listingHtml("Example Ltd", 7, "disabled"),
	)
	opts := testOptions(nil)

	recorder := RecordingOpener{Opener: &fakeOpener{session: session}, Dir: dir, Logger: zerolog.Nop()}
	recorded, err := New(recorder, opts).Scrape(context.Background(), testListingURL)
	if err != nil {
		t.Fatalf("recording Scrape() error: %v", err)
	}

	for _, name := range []string{"1.html", "1.html.meta", "2.html", "2.html.meta"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%v not recorded: %v", name, err)
		}
	}
	metadata, err := loadPageMetadata(filepath.Join(dir, "2.html"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testListingURL+"?page=2", metadata.URL); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}

	replayed, err := New(ReplayOpener{Dir: dir}, opts).Scrape(context.Background(), testListingURL)
	if err != nil {
		t.Fatalf("replaying Scrape() error: %v", err)
	}
	if diff := cmp.Diff(recorded, replayed); diff != "" {
		t.Errorf("(-recorded +replayed)\n%v", diff)
	}
}

func TestReplay_Missing(t *testing.T) {
	_, err := New(ReplayOpener{Dir: t.TempDir()}, testOptions(nil)).Scrape(context.Background(), testListingURL)
	var missing ReplayMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Scrape() error = %v, want ReplayMissingError", err)
	}
	if filepath.Base(missing.Filename) != "1.html" {
		t.Errorf("Filename = %v", missing.Filename)
	}
}

func TestReplay_ClickMissingControl(t *testing.T) {
	dir := t.TempDir()
	html := listingHtml("Example Ltd", 3, "")
	if err := os.WriteFile(filepath.Join(dir, "1.html"), []byte(html), 0644); err != nil {
		t.Fatal(err)
	}
	if err := savePageMetadata(filepath.Join(dir, "1.html"), PageMetadata{URL: testListingURL}); err != nil {
		t.Fatal(err)
	}

	session, err := ReplayOpener{Dir: dir}.OpenPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()
	if err := session.Navigate(context.Background(), testListingURL, time.Second); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if err := session.WaitReady(context.Background(), SelectorReviewCard, time.Second); err != nil {
		t.Errorf("WaitReady() error: %v", err)
	}
	if err := session.ClickAndSettle(context.Background(), `a[name="pagination-button-next"]`, time.Second); err == nil {
		t.Errorf("ClickAndSettle() should fail without a next control")
	}
}
