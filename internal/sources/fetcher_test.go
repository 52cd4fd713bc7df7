package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

var errPageMissing = errors.New("page missing")

// fakeFetcher serves canned pages keyed by absolute URL.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	visited []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, errs: map[string]error{}}
}

func (f *fakeFetcher) Document(_ context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.visited = append(f.visited, url)
	f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, errPageMissing)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func site(path string) string {
	return DefaultSiteRoot + "/" + path
}
