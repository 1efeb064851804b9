// Package resource implements the fetch-lifecycle engine shared by every
// remote data set the console displays: immutable queries, cached pages,
// and a generic controller that discards out-of-order responses.
package resource

// Query is an immutable snapshot of what a resource view wants to see:
// a page, a page size, and named filter values. A new Query is constructed
// for every change; existing values are never mutated in place.
type Query struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// NewQuery builds a query with a defensive copy of filters. Empty filter
// values are dropped so that "no filter" and "filter cleared" compare equal.
func NewQuery(page, limit int, filters map[string]string) Query {
	q := Query{Page: page, Limit: limit}
	for k, v := range filters {
		if v == "" {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]string, len(filters))
		}
		q.Filters[k] = v
	}
	return q
}

// Filter returns the named filter value, or "" when unset.
func (q Query) Filter(name string) string {
	return q.Filters[name]
}

// Equal reports whether two queries request the same data, comparing page,
// limit, and every filter by value.
func (q Query) Equal(other Query) bool {
	if q.Page != other.Page || q.Limit != other.Limit {
		return false
	}
	if len(q.Filters) != len(other.Filters) {
		return false
	}
	for k, v := range q.Filters {
		if other.Filters[k] != v {
			return false
		}
	}
	return true
}
