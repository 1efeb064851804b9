package resource

// Page holds one loaded page of a resource, in server order.
type Page[T any] struct {
	Items       []T
	TotalCount  int
	PageCount   int
	CurrentPage int
}

// SinglePage wraps a lone item as a one-page resource. Used for singleton
// resources (dashboard stats, settings) so they ride the same controller.
func SinglePage[T any](item T) Page[T] {
	return Page[T]{Items: []T{item}, TotalCount: 1, PageCount: 1, CurrentPage: 1}
}

// Status is the lifecycle phase of a resource.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a consistent snapshot of a controller. It is replaced wholesale
// on every transition; readers never observe a partially updated value.
//
// Data survives transitions into StatusError so a failed refresh does not
// blank out the table the operator is looking at.
type State[T any] struct {
	Status      Status
	Data        *Page[T]
	Err         error
	IssuedQuery *Query
	Sequence    uint64
}

// Loaded reports whether the snapshot carries displayable data, which is
// also true while a refresh is in flight or after a failed refresh.
func (s State[T]) Loaded() bool {
	return s.Data != nil
}
