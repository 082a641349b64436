package urlsync

import (
	"net/url"
	"sync"
)

// Location is the address of the current page. Replace swaps the query string
// in place without recording a new history entry.
type Location interface {
	Path() string
	Query() url.Values
	Replace(query url.Values)
}

// PageLocation is an in-memory Location for one rendered page.
type PageLocation struct {
	mu           sync.Mutex
	path         string
	query        url.Values
	replacements int
}

func NewPageLocation(rawURL string) (*PageLocation, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &PageLocation{path: u.Path, query: u.Query()}, nil
}

func (l *PageLocation) Path() string {
	return l.path
}

func (l *PageLocation) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneValues(l.query)
}

func (l *PageLocation) Replace(query url.Values) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = cloneValues(query)
	l.replacements++
}

// Replacements reports how many times the query string was replaced.
func (l *PageLocation) Replacements() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replacements
}

func (l *PageLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.query) == 0 {
		return l.path
	}
	return l.path + "?" + l.query.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
