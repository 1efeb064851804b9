// Package filter turns operator-entered search, filter, date, and page
// values into canonical resource queries. A filter change atomically resets
// the page to 1, and free-text search is debounced so a burst of keystrokes
// produces a single query.
package filter

import (
	"sync"
	"time"

	"github.com/mealqr/console/internal/console/resource"
)

// DefaultDebounce is the trailing quiet period for free-text search.
const DefaultDebounce = 300 * time.Millisecond

// Sentinel filter value meaning "no filtering"; dropped from the canonical
// query so the backend never sees it as a parameter.
const All = "all"

// Coordinator holds the mutable filter state for one resource and emits a
// derived query whenever that state changes.
type Coordinator struct {
	emit     func(resource.Query)
	debounce time.Duration

	mu          sync.Mutex
	limit       int
	page        int
	pageCount   int // last known; 0 until the first page loads
	filters     map[string]string
	searchField string
	pending     *time.Timer
	stopped     bool
}

// New builds a coordinator with the given fixed page size. searchField names
// the one filter that receives debounced free-text input; pass "" for
// resources without a search box. emit receives every derived query and must
// be safe to call from a timer goroutine.
func New(limit int, searchField string, emit func(resource.Query)) *Coordinator {
	return &Coordinator{
		emit:        emit,
		debounce:    DefaultDebounce,
		limit:       limit,
		page:        1,
		filters:     make(map[string]string),
		searchField: searchField,
	}
}

// SetDebounce overrides the search quiet period. Intended for tests.
func (c *Coordinator) SetDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounce = d
}

// Query derives the canonical query for the current state. Values equal to
// the "all" sentinel are omitted, as are empty strings.
func (c *Coordinator) Query() resource.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *Coordinator) queryLocked() resource.Query {
	canonical := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		if v == "" || v == All {
			continue
		}
		canonical[k] = v
	}
	return resource.NewQuery(c.page, c.limit, canonical)
}

// SetFilter updates one non-search filter field and resets the page to 1 in
// the same state transition, then emits the derived query. A filter change
// must never leave the view on a page that may not exist under the new
// filter.
func (c *Coordinator) SetFilter(name, value string) {
	c.mu.Lock()
	c.filters[name] = value
	c.page = 1
	q := c.queryLocked()
	c.mu.Unlock()
	c.emit(q)
}

// SetSearch records a free-text search value and (re)arms the trailing
// debounce. A pending emission superseded by a later keystroke never fires;
// only the last value after the quiet period produces a query.
func (c *Coordinator) SetSearch(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.searchField == "" || c.stopped {
		return
	}
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = time.AfterFunc(c.debounce, func() {
		c.applySearch(value)
	})
}

func (c *Coordinator) applySearch(value string) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.filters[c.searchField] = value
	c.page = 1
	q := c.queryLocked()
	c.mu.Unlock()
	c.emit(q)
}

// Search returns the last applied search value (not a pending one).
func (c *Coordinator) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters[c.searchField]
}

// SetPage moves to page n, clamped to [1, last known page count], and emits
// the derived query. Out-of-range requests are clamped rather than rejected.
func (c *Coordinator) SetPage(n int) {
	c.mu.Lock()
	if n < 1 {
		n = 1
	}
	if c.pageCount > 0 && n > c.pageCount {
		n = c.pageCount
	}
	c.page = n
	q := c.queryLocked()
	c.mu.Unlock()
	c.emit(q)
}

// Page returns the current page number.
func (c *Coordinator) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// NotePageCount records the page count reported by the last loaded response,
// used to clamp subsequent SetPage calls.
func (c *Coordinator) NotePageCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageCount = n
}

// Stop cancels any pending debounced emission. After Stop, further input is
// ignored; the coordinator is done for.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}
