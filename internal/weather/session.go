package weather

import (
	"context"
	"sync"
)

// Runner is the run surface a Session drives; *Orchestrator implements it.
type Runner interface {
	RunByName(ctx context.Context, city string) (Report, error)
	RunByCoords(ctx context.Context, lat, lon float64) (Report, error)
}

// Session serializes the runs of a single client. Starting a run cancels the
// one in flight, and a run that is no longer the latest when it returns
// reports ErrSuperseded instead of its result, so a slow stale response can
// never replace a fresher one.
type Session struct {
	runner Runner

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

func NewSession(runner Runner) *Session {
	return &Session{runner: runner}
}

// SearchByName starts a name run, superseding any run in flight.
func (s *Session) SearchByName(ctx context.Context, city string) (Report, error) {
	return s.Begin(ctx).ByName(city)
}

// SearchByCoords starts a coordinate run, superseding any run in flight.
func (s *Session) SearchByCoords(ctx context.Context, lat, lon float64) (Report, error) {
	return s.Begin(ctx).ByCoords(lat, lon)
}

// Begin claims the next generation and cancels the run in flight. The
// returned Ticket must be executed once with ByName or ByCoords. Callers that
// execute runs asynchronously call Begin in request order, before handing
// the Ticket to another goroutine.
func (s *Session) Begin(ctx context.Context) *Ticket {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.mu.Unlock()

	return &Ticket{session: s, ctx: ctx, cancel: cancel, generation: gen}
}

// Generation returns the token of the most recently started run.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels the run in flight, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) release(gen uint64, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	if s.generation == gen {
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *Session) finish(gen uint64, report Report, err error) (Report, error) {
	if !s.isCurrent(gen) {
		return Report{}, ErrSuperseded
	}
	return report, err
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

// Ticket is a run whose generation has been claimed but which has not been
// executed yet.
type Ticket struct {
	session    *Session
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
}

func (t *Ticket) Generation() uint64 { return t.generation }

// Current reports whether no newer run has started since this one.
func (t *Ticket) Current() bool {
	return t.session.isCurrent(t.generation)
}

// ByName executes the ticket as a name run.
func (t *Ticket) ByName(city string) (Report, error) {
	defer t.session.release(t.generation, t.cancel)

	report, err := t.session.runner.RunByName(t.ctx, city)
	return t.session.finish(t.generation, report, err)
}

// ByCoords executes the ticket as a coordinate run.
func (t *Ticket) ByCoords(lat, lon float64) (Report, error) {
	defer t.session.release(t.generation, t.cancel)

	report, err := t.session.runner.RunByCoords(t.ctx, lat, lon)
	return t.session.finish(t.generation, report, err)
}
