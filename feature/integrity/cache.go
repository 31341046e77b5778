package integrity

import (
	"sync"
	"time"

	"records-manager/core/reconcile"
	"records-manager/feature/integrity/checks"

	"golang.org/x/sync/singleflight"
)

// reportCache holds duplicate reports per kind. Concurrent requests for a stale
// kind share one build.
type reportCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	reports map[reconcile.EntityKind]*checks.DuplicateReport
	sf      singleflight.Group
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{
		ttl:     ttl,
		now:     time.Now,
		reports: make(map[reconcile.EntityKind]*checks.DuplicateReport),
	}
}

func (c *reportCache) fresh(kind reconcile.EntityKind) (*checks.DuplicateReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reports[kind]
	if !ok || c.now().Sub(r.Built) > c.ttl {
		return nil, false
	}
	return r, true
}

func (c *reportCache) get(kind reconcile.EntityKind, build func() (*checks.DuplicateReport, error)) (*checks.DuplicateReport, error) {
	if r, ok := c.fresh(kind); ok {
		return r, nil
	}

	result, err, _ := c.sf.Do(string(kind), func() (any, error) {
		// Double-check after joining the flight.
		if r, ok := c.fresh(kind); ok {
			return r, nil
		}
		r, err := build()
		if err != nil {
			return nil, err
		}
		r.Built = c.now()

		c.mu.Lock()
		c.reports[kind] = r
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*checks.DuplicateReport), nil
}

func (c *reportCache) invalidate(kind reconcile.EntityKind) {
	c.mu.Lock()
	delete(c.reports, kind)
	c.mu.Unlock()
}
