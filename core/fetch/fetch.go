package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the page size of the bibliographic API.
	DefaultPageSize = 25
	// DefaultCeiling is the largest offset the controller will request.
	DefaultCeiling = 1000
)

// ErrTransport marks a failed page request.
var ErrTransport = errors.New("transport failure")

// TransportError wraps the collaborator error of a failed page request.
type TransportError struct {
	Offset int
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("page at offset %d: %v", e.Offset, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Page is one response of the page primitive.
type Page[T any] struct {
	Items []T
	// Total is the result count reported by the API.
	Total  int
	Offset int
}

// PageFunc fetches the page starting at offset.
type PageFunc[T any] func(ctx context.Context, offset, pageSize int) (Page[T], error)

// State is the controller's position in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateExhausted State = "exhausted"
	StateAborted   State = "aborted"
)

// Reason explains why a controller became exhausted.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonEmptyPage    Reason = "empty_page"
	ReasonCeiling      Reason = "ceiling"
	ReasonTotalReached Reason = "total_reached"
)

// PageEvent is passed to the OnPage hook after every successful request.
type PageEvent struct {
	Number      int
	Offset      int
	Received    int
	Accumulated int
	Expected    int
}

// Options configures a controller.
type Options struct {
	PageSize int
	Ceiling  int
	// OnBeforePage is called before each request with the 1-based page number and offset.
	OnBeforePage func(number, offset int)
	// OnPage is called after each successful request.
	OnPage func(PageEvent)
	Logger *zap.Logger
}

// Controller drives the page primitive with a fixed page size and a monotonic offset.
// It is safe for concurrent use, but requests are always issued one at a time.
type Controller[T any] struct {
	fetch    PageFunc[T]
	pageSize int
	ceiling  int
	opts     Options
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	reason    Reason
	offset    int
	expected  int
	acc       []T
	calls     int
	truncated bool
}

// New creates an idle controller.
func New[T any](fetch PageFunc[T], opts Options) *Controller[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller[T]{
		fetch:    fetch,
		pageSize: opts.PageSize,
		ceiling:  opts.Ceiling,
		opts:     opts,
		logger:   logger,
		state:    StateIdle,
	}
}

// FetchAll loops until the controller is exhausted or a request fails and returns
// everything accumulated. It continues while
//
//	accumulated < expectedTotal && offset < expectedTotal && offset <= ceiling
//
// An empty page ends the loop first, then the ceiling (with a truncation warning),
// then the expected total. A failed request aborts the loop; the partial accumulation
// is returned together with a *TransportError.
func (c *Controller[T]) FetchAll(ctx context.Context, expectedTotal int) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expected = expectedTotal
	c.state = StateFetching

	for len(c.acc) < c.expected && c.offset < c.expected && c.offset <= c.ceiling {
		page, err := c.fetchPageLocked(ctx)
		if err != nil {
			return c.snapshotLocked(), err
		}
		if len(page.Items) == 0 {
			c.finishLocked(ReasonEmptyPage)
			return c.snapshotLocked(), nil
		}
	}

	if c.offset > c.ceiling && len(c.acc) < c.expected {
		c.truncated = true
		c.logger.Warn("Fetch stopped at offset ceiling, results truncated",
			zap.Int("ceiling", c.ceiling),
			zap.Int("accumulated", len(c.acc)),
			zap.Int("expected", c.expected),
		)
		c.finishLocked(ReasonCeiling)
	} else {
		c.finishLocked(ReasonTotalReached)
	}
	return c.snapshotLocked(), nil
}

// FetchNext requests one more page at the current offset and appends it to the
// accumulation. The page's reported total replaces the expected total. It does not
// check HasMore first; that is the caller's decision.
func (c *Controller[T]) FetchNext(ctx context.Context) (Page[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.offset > c.ceiling {
		c.truncated = true
		c.finishLocked(ReasonCeiling)
		return Page[T]{Offset: c.offset}, nil
	}

	c.state = StateFetching
	page, err := c.fetchPageLocked(ctx)
	if err != nil {
		return page, err
	}
	if page.Total > 0 {
		c.expected = page.Total
	}
	switch {
	case len(page.Items) == 0:
		c.finishLocked(ReasonEmptyPage)
	case c.offset >= c.expected:
		c.finishLocked(ReasonTotalReached)
	default:
		c.state = StateIdle
	}
	return page, nil
}

// Resume seeds an incremental controller with a previously accumulated result set
// so that the next FetchNext continues after it.
func (c *Controller[T]) Resume(accumulated []T, expectedTotal int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acc = append([]T(nil), accumulated...)
	c.offset = len(accumulated)
	c.expected = expectedTotal
	c.state = StateIdle
	c.reason = ReasonNone
}

// Seek positions an incremental controller at offset without prior results, for
// callers that keep the accumulation themselves.
func (c *Controller[T]) Seek(offset, expectedTotal int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acc = nil
	c.offset = max(offset, 0)
	c.expected = expectedTotal
	c.state = StateIdle
	c.reason = ReasonNone
}

// HasMore reports whether another FetchNext could return results.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateExhausted && c.state != StateAborted &&
		c.offset < c.expected && c.offset <= c.ceiling
}

// fetchPageLocked is the single page primitive shared by both modes.
func (c *Controller[T]) fetchPageLocked(ctx context.Context) (Page[T], error) {
	number := c.offset/c.pageSize + 1
	if c.opts.OnBeforePage != nil {
		c.opts.OnBeforePage(number, c.offset)
	}

	c.calls++
	page, err := c.fetch(ctx, c.offset, c.pageSize)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.state = StateAborted
		c.logger.Error("Page request failed", zap.Int("offset", c.offset), zap.Int("accumulated", len(c.acc)), zap.Error(err))
		return Page[T]{Offset: c.offset}, &TransportError{Offset: c.offset, Err: err}
	}
	page.Offset = c.offset

	if len(page.Items) > 0 {
		c.acc = append(c.acc, page.Items...)
		c.offset += c.pageSize
	}
	if c.opts.OnPage != nil {
		c.opts.OnPage(PageEvent{
			Number:      number,
			Offset:      page.Offset,
			Received:    len(page.Items),
			Accumulated: len(c.acc),
			Expected:    c.expected,
		})
	}
	return page, nil
}

func (c *Controller[T]) finishLocked(r Reason) {
	c.state = StateExhausted
	c.reason = r
}

func (c *Controller[T]) snapshotLocked() []T {
	return append([]T(nil), c.acc...)
}

// Accumulated returns a copy of everything fetched so far.
func (c *Controller[T]) Accumulated() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns why the controller became exhausted.
func (c *Controller[T]) Reason() Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Offset returns the offset of the next request.
func (c *Controller[T]) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Calls returns the number of page requests issued.
func (c *Controller[T]) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Truncated reports whether the ceiling cut the result set short.
func (c *Controller[T]) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
