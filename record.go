package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const MetadataFileExtension = ".meta"

// PageMetadata holds metadata for saved pages
type PageMetadata struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// savePageMetadata saves metadata to a .meta file
func savePageMetadata(filename string, metadata PageMetadata) error {
	metadataFilename := filename + MetadataFileExtension
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %v", err)
	}
	err = os.WriteFile(metadataFilename, metadataBytes, os.FileMode(0644))
	if err != nil {
		return fmt.Errorf("failed to write metadata file %s: %v", metadataFilename, err)
	}
	return nil
}

// loadPageMetadata loads metadata from a .meta file
func loadPageMetadata(filename string) (PageMetadata, error) {
	var metadata PageMetadata
	metadataFilename := filename + MetadataFileExtension
	metadataBytes, err := os.ReadFile(metadataFilename)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file %s: %v", metadataFilename, err)
	}

	err = json.Unmarshal(metadataBytes, &metadata)
	if err != nil {
		return metadata, fmt.Errorf("failed to parse metadata file %s: %v", metadataFilename, err)
	}
	return metadata, nil
}

// recordFilename is the n-th page of the session recorded under dir.
func recordFilename(dir string, n int) string {
	return filepath.Join(dir, strconv.Itoa(n)+".html")
}

// RecordingOpener wraps another opener and saves every snapshot as
// <Dir>/<n>.html with a .meta file beside it, so a scrape can be replayed
// offline with ReplayOpener.
type RecordingOpener struct {
	Opener PageOpener
	Dir    string
	Logger zerolog.Logger
}

func (opener RecordingOpener) OpenPage(ctx context.Context) (PageSession, error) {
	if err := os.MkdirAll(opener.Dir, 0777); err != nil {
		return nil, fmt.Errorf("couldn't create directory: %v", opener.Dir)
	}
	session, err := opener.Opener.OpenPage(ctx)
	if err != nil {
		return nil, err
	}
	return &recordingPage{PageSession: session, dir: opener.Dir, log: opener.Logger}, nil
}

type recordingPage struct {
	PageSession
	dir   string
	log   zerolog.Logger
	count int
}

func (rec *recordingPage) Snapshot(ctx context.Context) (*Page, error) {
	page, err := rec.PageSession.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rec.count++
	filename := recordFilename(rec.dir, rec.count)
	if err := os.WriteFile(filename, []byte(page.HTML), os.FileMode(0644)); err != nil {
		return nil, fmt.Errorf("failed to write record file %s: %v", filename, err)
	}
	metadata := PageMetadata{URL: page.BaseURL.String(), Title: page.Title(), RecordedAt: time.Now().UTC()}
	if err := savePageMetadata(filename, metadata); err != nil {
		return nil, err
	}
	rec.log.Debug().Str("file", filename).Msg("page recorded")
	return page, nil
}

// ReplayOpener serves pages recorded by RecordingOpener instead of a
// browser. Each Navigate or ClickAndSettle moves to the next recorded file.
type ReplayOpener struct {
	Dir string
}

func (opener ReplayOpener) OpenPage(ctx context.Context) (PageSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &replayPage{dir: opener.Dir}, nil
}

type replayPage struct {
	dir   string
	mu    sync.Mutex
	count int
	page  *Page
}

func (rp *replayPage) load() error {
	rp.count++
	filename := recordFilename(rp.dir, rp.count)
	html, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return ReplayMissingError{Filename: filename}
		}
		return err
	}
	metadata, err := loadPageMetadata(filename)
	if err != nil {
		return err
	}
	page, err := NewPage(metadata.URL, string(html))
	if err != nil {
		return err
	}
	rp.page = page
	return nil
}

func (rp *replayPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return rp.load()
}

func (rp *replayPage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.find(selector)
}

func (rp *replayPage) find(selector string) error {
	if rp.page == nil {
		return fmt.Errorf("no page loaded")
	}
	if rp.page.Find(selector).Length() == 0 {
		return fmt.Errorf("selector %q not found in %v", selector, recordFilename(rp.dir, rp.count))
	}
	return nil
}

func (rp *replayPage) Snapshot(ctx context.Context) (*Page, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.page == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return rp.page, nil
}

func (rp *replayPage) ClickAndSettle(ctx context.Context, selector string, timeout time.Duration) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if err := rp.find(selector); err != nil {
		return err
	}
	return rp.load()
}

func (rp *replayPage) Close() error {
	return nil
}
