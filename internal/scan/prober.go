package scan

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tdh8316/mailcheck/internal/config"
	"github.com/tdh8316/mailcheck/internal/httpx"
	"github.com/tdh8316/mailcheck/internal/uapool"
)

// Prober checks one identifier at a time. A single Prober is shared by all
// goroutines of a run; it holds no per-probe state.
type Prober struct {
	client  httpx.Doer
	cfg     *config.RunConfig
	results Inserter

	pool         uapool.Pool
	limiter      *rate.Limiter
	log          logrus.FieldLogger
	onTransition func(Transition)
	jitter       func(n int) int
}

type Option func(*Prober)

func WithUserAgentPool(p uapool.Pool) Option {
	return func(pr *Prober) { pr.pool = p }
}

// WithLimiter caps request attempts across all probes.
func WithLimiter(l *rate.Limiter) Option {
	return func(pr *Prober) { pr.limiter = l }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(pr *Prober) { pr.log = l }
}

// WithTransitionHook observes every state change. The hook is called from
// probe goroutines and must be safe for concurrent use.
func WithTransitionHook(fn func(Transition)) Option {
	return func(pr *Prober) { pr.onTransition = fn }
}

func NewProber(client httpx.Doer, cfg *config.RunConfig, results Inserter, opts ...Option) *Prober {
	p := &Prober{
		client:  client,
		cfg:     cfg,
		results: results,
		jitter:  rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		p.log = l
	}
	if p.limiter == nil && cfg.Rate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return p
}

// PacingDelay is base plus a random 0..jitterPercent share of base.
func PacingDelay(base time.Duration, jitterPercent int, intn func(int) int) time.Duration {
	if base <= 0 {
		return 0
	}
	extra := 0
	if jitterPercent > 0 {
		extra = intn(jitterPercent + 1)
	}
	return base + base*time.Duration(extra)/100
}

// Probe runs the full state machine for id. index is the dispatch position;
// the first identifier (index 0) is never delayed.
func (p *Prober) Probe(ctx context.Context, index int, id string) Result {
	return p.run(ctx, index, id, nil)
}

type probe struct {
	*Prober
	id    string
	index int

	state    State
	attempts int
	failures int
	valid    bool
	err      error
}

func (p *Prober) run(ctx context.Context, index int, id string, slots *semaphore.Weighted) Result {
	start := time.Now()
	pr := &probe{Prober: p, id: id, index: index, state: Pending}

	held := false
	defer func() {
		if held {
			slots.Release(1)
		}
	}()
	// acquire blocks until a dispatch slot is free; it is a no-op once held
	// so retries keep their slot.
	acquire := func() bool {
		if slots == nil || held {
			return true
		}
		if err := slots.Acquire(ctx, 1); err != nil {
			pr.err = err
			return false
		}
		held = true
		return true
	}

	for !pr.state.Terminal() {
		var next State
		switch pr.state {
		case Pending:
			next = pr.pending(acquire)
		case Delaying:
			next = pr.delaying(ctx, acquire)
		case Dispatching:
			next = pr.dispatch(ctx)
		case Retry:
			next = pr.retry(ctx)
		}
		pr.move(next)
	}

	res := Result{
		Identifier: id,
		Index:      index,
		Attempts:   pr.attempts,
		Elapsed:    time.Since(start),
	}
	switch {
	case pr.state == Exhausted:
		res.Outcome = Failed
		res.Err = errors.Wrapf(pr.err, "giving up after %d attempt(s)", pr.attempts)
	case pr.valid:
		res.Outcome = Valid
		p.results.Insert(id)
	default:
		res.Outcome = Invalid
	}
	return res
}

func (pr *probe) move(next State) {
	t := Transition{Identifier: pr.id, From: pr.state, To: next, Attempts: pr.attempts}
	pr.state = next
	pr.log.WithFields(logrus.Fields{
		"identifier": t.Identifier,
		"from":       t.From,
		"to":         t.To,
		"attempts":   t.Attempts,
	}).Debug("probe transition")
	if pr.onTransition != nil {
		pr.onTransition(t)
	}
}

func (pr *probe) pending(acquire func() bool) State {
	if pr.index > 0 && pr.cfg.Delay > 0 {
		return Delaying
	}
	if !acquire() {
		return Exhausted
	}
	return Dispatching
}

func (pr *probe) delaying(ctx context.Context, acquire func() bool) State {
	d := PacingDelay(pr.cfg.Delay, pr.cfg.JitterPercent, pr.jitter)
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		pr.err = ctx.Err()
		return Exhausted
	case <-timer.C:
	}
	if !acquire() {
		return Exhausted
	}
	return Dispatching
}

func (pr *probe) dispatch(ctx context.Context) State {
	if pr.limiter != nil {
		if err := pr.limiter.Wait(ctx); err != nil {
			pr.err = err
			return Exhausted
		}
	}

	req, err := httpx.Build(pr.id, pr.cfg, pr.pool).Request(ctx)
	if err != nil {
		pr.err = err
		return Exhausted
	}

	pr.attempts++
	resp, err := pr.client.Do(req)
	if err != nil {
		pr.err = err
		if ctx.Err() != nil {
			return Exhausted
		}
		return Retry
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	pr.valid = hasCookie(resp, CompassCookie)
	return Success
}

func (pr *probe) retry(ctx context.Context) State {
	pr.failures++
	if pr.failures >= pr.cfg.MaxAttempts || ctx.Err() != nil {
		return Exhausted
	}
	pr.log.WithFields(logrus.Fields{
		"identifier": pr.id,
		"attempt":    pr.failures,
	}).WithError(pr.err).Debug("retrying probe")
	return Dispatching
}

func hasCookie(resp *http.Response, name string) bool {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return true
		}
	}
	return false
}
