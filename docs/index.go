package docs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultLimit = 10
	refreshAfter = time.Hour
)

// Index downloads and caches a documentation site's inventory
type Index struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu       sync.Mutex
	entries  []Entry
	loadedAt time.Time
}

// NewIndex creates an index for the Sphinx site rooted at baseURL
func NewIndex(baseURL string, httpClient *http.Client) *Index {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Index{
		baseURL:    baseURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// BaseURL is the documentation root
func (i *Index) BaseURL() string {
	return i.baseURL
}

// Search returns up to limit entries best matching query
func (i *Index) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	entries, err := i.load(ctx)
	if err != nil {
		return nil, err
	}
	return Search(entries, query, limit), nil
}

// load returns the cached entries, refreshing them when stale. A failed
// refresh keeps serving the previous entries.
func (i *Index) load(ctx context.Context) ([]Entry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.entries != nil && i.now().Sub(i.loadedAt) < refreshAfter {
		return i.entries, nil
	}

	entries, err := i.fetch(ctx)
	if err != nil {
		if i.entries != nil {
			log.WithError(err).Warn("Failed to refresh docs inventory, serving cached copy")
			return i.entries, nil
		}
		return nil, err
	}

	i.entries = entries
	i.loadedAt = i.now()
	log.WithField("entries", len(entries)).Debug("Loaded docs inventory")
	return entries, nil
}

func (i *Index) fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+"objects.inv", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download inventory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory download returned status %d", resp.StatusCode)
	}

	return ParseInventory(resp.Body, i.baseURL)
}

type entryNames []Entry

func (e entryNames) String(i int) string { return e[i].Name }
func (e entryNames) Len() int            { return len(e) }

// Search ranks entries by fuzzy match of their names against query
func Search(entries []Entry, query string, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	matches := fuzzy.FindFrom(query, entryNames(entries))
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Entry, 0, len(matches))
	for _, match := range matches {
		results = append(results, entries[match.Index])
	}
	return results
}
