// Package suggest implements debounced, stale-safe autocomplete.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// DefaultDelay is the quiet interval after the last keystroke before a lookup runs.
const DefaultDelay = 300 * time.Millisecond

// Suggester produces place suggestions for a query.
type Suggester interface {
	Suggest(ctx context.Context, query string) ([]weather.Place, error)
}

// RecentLister returns recent searches, shown when the query is empty.
type RecentLister interface {
	Recent(ctx context.Context) ([]string, error)
}

// Result is one delivery to the controller's consumer. For an empty query
// Places is nil and Recent holds the recent-search list.
type Result struct {
	Generation uint64
	Query      string
	Places     []weather.Place
	Recent     []string
	Err        error
}

// Controller owns the autocomplete state of one client: the pending timer,
// the in-flight lookup and the generation of the latest query. Only results
// for the latest generation reach the deliver callback.
type Controller struct {
	suggester Suggester
	recent    RecentLister
	delay     time.Duration
	deliver   func(Result)
	logger    *zap.Logger

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	closed     bool

	// deliverMu keeps the staleness check and the callback together so a
	// newer result is never overtaken by an older one.
	deliverMu sync.Mutex
}

// NewController creates a Controller. recent may be nil; delay <= 0 uses DefaultDelay.
func NewController(suggester Suggester, recent RecentLister, delay time.Duration, deliver func(Result), logger *zap.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		suggester: suggester,
		recent:    recent,
		delay:     delay,
		deliver:   deliver,
		logger:    logger,
	}
}

// OnQueryChanged registers a keystroke and returns its generation. Any
// pending or in-flight lookup is abandoned. A blank query delivers the
// recent-search list immediately; otherwise the lookup runs after the quiet
// interval.
func (c *Controller) OnQueryChanged(query string) uint64 {
	q := strings.TrimSpace(query)

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.stopLocked()
	if c.closed {
		c.mu.Unlock()
		return gen
	}
	if q == "" {
		c.mu.Unlock()
		c.showRecent(gen)
		return gen
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.timer = time.AfterFunc(c.delay, func() {
		c.lookup(ctx, gen, q)
	})
	c.mu.Unlock()
	return gen
}

// Close abandons pending work; later results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) lookup(ctx context.Context, gen uint64, q string) {
	places, err := c.suggester.Suggest(ctx, q)
	if err != nil && ctx.Err() != nil {
		// Cancelled by a newer keystroke.
		return
	}
	if err != nil {
		c.logger.Debug("suggestion lookup failed", zap.String("query", q), zap.Error(err))
	}
	c.onResultsReady(gen, Result{Query: q, Places: places, Err: err})
}

func (c *Controller) showRecent(gen uint64) {
	res := Result{Recent: []string{}}
	if c.recent != nil {
		items, err := c.recent.Recent(context.Background())
		if err != nil {
			c.logger.Warn("failed to load recent searches", zap.Error(err))
		} else if items != nil {
			res.Recent = items
		}
	}
	c.onResultsReady(gen, res)
}

// onResultsReady delivers res if gen is still the latest generation and
// reports whether it did.
func (c *Controller) onResultsReady(gen uint64, res Result) bool {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	stale := c.closed || gen != c.generation
	c.mu.Unlock()
	if stale {
		return false
	}

	res.Generation = gen
	if c.deliver != nil {
		c.deliver(res)
	}
	return true
}
