package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

type fakeSuggester struct {
	mu      sync.Mutex
	queries []string
	// block, when set for a query, holds the lookup until the channel is
	// closed or the context is cancelled.
	block map[string]chan struct{}
}

func (f *fakeSuggester) Suggest(ctx context.Context, q string) ([]weather.Place, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	ch := f.block[q]
	f.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []weather.Place{{Name: q + " City", CountryCode: "XX"}}, nil
}

func (f *fakeSuggester) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type fakeRecent []string

func (f fakeRecent) Recent(context.Context) ([]string, error) { return f, nil }

type collector struct {
	mu  sync.Mutex
	got []Result
	ch  chan Result
}

func newCollector() *collector {
	return &collector{ch: make(chan Result, 16)}
}

func (c *collector) deliver(r Result) {
	c.mu.Lock()
	c.got = append(c.got, r)
	c.mu.Unlock()
	c.ch <- r
}

func (c *collector) wait(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-c.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for suggestions")
		return Result{}
	}
}

func (c *collector) results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.got...)
}

func TestDebounceCollapsesKeystrokes(t *testing.T) {
	s := &fakeSuggester{}
	out := newCollector()
	c := NewController(s, nil, 20*time.Millisecond, out.deliver, nil)
	defer c.Close()

	c.OnQueryChanged("L")
	c.OnQueryChanged("Li")
	last := c.OnQueryChanged("Lis")

	r := out.wait(t)
	assert.Equal(t, last, r.Generation)
	assert.Equal(t, "Lis", r.Query)
	require.Len(t, r.Places, 1)
	assert.Equal(t, "Lis City", r.Places[0].Name)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"Lis"}, s.calls())
	assert.Len(t, out.results(), 1)
}

func TestStaleLookupIsDropped(t *testing.T) {
	release := make(chan struct{})
	s := &fakeSuggester{block: map[string]chan struct{}{"Par": release}}
	out := newCollector()
	c := NewController(s, nil, 5*time.Millisecond, out.deliver, nil)
	defer c.Close()

	c.OnQueryChanged("Par")
	require.Eventually(t, func() bool { return len(s.calls()) == 1 }, time.Second, 2*time.Millisecond)

	latest := c.OnQueryChanged("Paris")
	close(release)

	r := out.wait(t)
	assert.Equal(t, latest, r.Generation)
	assert.Equal(t, "Paris", r.Query)

	time.Sleep(30 * time.Millisecond)
	for _, got := range out.results() {
		assert.NotEqual(t, "Par", got.Query)
	}
}

func TestEmptyQueryShowsRecentWithoutLookup(t *testing.T) {
	s := &fakeSuggester{}
	out := newCollector()
	c := NewController(s, fakeRecent{"Paris", "Rome"}, 5*time.Millisecond, out.deliver, nil)
	defer c.Close()

	c.OnQueryChanged("Rom")
	c.OnQueryChanged("   ")

	r := out.wait(t)
	assert.Nil(t, r.Places)
	assert.Equal(t, []string{"Paris", "Rome"}, r.Recent)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, s.calls())
	assert.Len(t, out.results(), 1)
}

func TestClosedControllerDeliversNothing(t *testing.T) {
	s := &fakeSuggester{}
	out := newCollector()
	c := NewController(s, nil, 5*time.Millisecond, out.deliver, nil)

	c.OnQueryChanged("Berlin")
	c.Close()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, out.results())
	assert.Empty(t, s.calls())
}
