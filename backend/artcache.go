package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
)

const artCacheDir = "art"

// ArtCache fetches album art URLs reported by sessions and caches them
// on disk, so the notification surface can reference a local file.
type ArtCache struct {
	baseDir string
	httpC   *retryablehttp.Client

	mu       sync.Mutex
	fetching map[string]struct{}
}

func NewArtCache(baseCacheDir string) *ArtCache {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.Logger = nil
	return &ArtCache{
		baseDir:  path.Join(baseCacheDir, artCacheDir),
		httpC:    c,
		fetching: make(map[string]struct{}),
	}
}

// GetArtFile returns a local file path for the art at url, fetching
// and caching it if needed. Returns "" on any failure; callers fall
// back to a default icon.
func (a *ArtCache) GetArtFile(url string) string {
	if url == "" || !strings.HasPrefix(url, "http") {
		return ""
	}
	p := a.filePathFor(url)
	if _, err := os.Stat(p); err == nil {
		return p
	}

	a.mu.Lock()
	if _, busy := a.fetching[url]; busy {
		a.mu.Unlock()
		return ""
	}
	a.fetching[url] = struct{}{}
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.fetching, url)
		a.mu.Unlock()
	}()

	if err := a.fetch(url, p); err != nil {
		return ""
	}
	return p
}

func (a *ArtCache) fetch(url, dstPath string) error {
	resp, err := a.httpC.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(a.baseDir, 0770); err != nil {
		return err
	}
	f, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func (a *ArtCache) filePathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return path.Join(a.baseDir, hex.EncodeToString(sum[:16]))
}
