package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickgao/ticker-feed/internal/model"
	"github.com/rickgao/ticker-feed/internal/provider"
)

// Provider supplies ticker items.
type Provider interface {
	FetchTickerData(ctx context.Context) ([]model.TickerItem, error)
	// InvalidateCache makes the next FetchTickerData bypass every cache.
	InvalidateCache()
}

var (
	ErrInvalidInterval = errors.New("poller: interval must be positive")
	ErrNilProvider     = errors.New("poller: provider is required")
	ErrNotStarted      = errors.New("poller: not started")
	ErrStopped         = errors.New("poller: stopped")
)

// Config holds poller configuration.
type Config struct {
	Interval     time.Duration // Refresh interval (default: 60s)
	FetchTimeout time.Duration // Per-fetch timeout, 0 = none (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     60 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// Poller periodically fetches ticker items and exposes the latest state.
type Poller struct {
	cfg      Config
	provider Provider
	logger   *slog.Logger
	tracer   trace.Tracer
	id       uuid.UUID
	now      func() time.Time

	mu    sync.Mutex
	state model.PollerState

	seq            uint64             // Latest issued fetch
	cancelInflight context.CancelFunc // Cancels the latest issued fetch
	refreshing     bool               // A refresh is invalidating or outstanding

	running bool
	stopped bool
	subs    map[chan model.PollerState]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, p Provider, logger *slog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if p == nil {
		return nil, ErrNilProvider
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New()
	return &Poller{
		cfg:      cfg,
		provider: p,
		logger:   logger.With("poller_id", id.String()),
		tracer:   otel.Tracer("github.com/rickgao/ticker-feed/internal/poller"),
		id:       id,
		now:      time.Now,
		state:    model.NewPollerState(),
		subs:     make(map[chan model.PollerState]struct{}),
	}, nil
}

// ID returns the poller instance id.
func (p *Poller) ID() uuid.UUID {
	return p.id
}

// Start triggers an immediate fetch and schedules one every interval.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.running {
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	p.wg.Add(1)
	go p.run()

	p.logger.Info("ticker poller started",
		"interval", p.cfg.Interval,
		"fetch_timeout", p.cfg.FetchTimeout,
	)

	return nil
}

// Stop cancels the schedule and any in-flight fetch. Results arriving after
// Stop are discarded. Subscriber channels are closed. Cancelling the context
// passed to Start has the same effect, except that nothing waits.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopLocked moves the poller to Stopped. It is a no-op once stopped.
func (p *Poller) stopLocked() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.running = false
	if p.cancel != nil {
		p.cancel()
	}
	p.cancelInflight = nil
	p.refreshing = false
	p.state.IsLoading = false
	p.state.Status = model.StatusStopped
	p.publishLocked()
	for ch := range p.subs {
		close(ch)
		delete(p.subs, ch)
	}
	p.logger.Info("ticker poller stopped")
}

// Refresh invalidates the provider cache and starts a fetch. IsLoading is
// true when Refresh returns. A refresh issued while another is outstanding
// joins it; one issued during a scheduled fetch supersedes that fetch.
func (p *Poller) Refresh() error {
	p.mu.Lock()
	if err := p.checkRunningLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.refreshing {
		p.mu.Unlock()
		p.logger.Debug("refresh already in progress")
		return nil
	}
	p.refreshing = true
	p.state.Error = ""
	p.state.IsLoading = true
	p.state.Status = model.StatusLoading
	p.publishLocked()
	p.mu.Unlock()

	p.provider.InvalidateCache()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkRunningLocked(); err != nil {
		p.refreshing = false
		return err
	}
	p.beginLocked(true)
	return nil
}

// State returns a snapshot of the current state.
func (p *Poller) State() model.PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// Subscribe returns a channel receiving a snapshot after every state change.
// Only the latest snapshot is kept for slow readers. The returned func
// unsubscribes; the channel is closed by Stop.
func (p *Poller) Subscribe() (<-chan model.PollerState, func()) {
	ch := make(chan model.PollerState, 1)

	p.mu.Lock()
	if p.stopped {
		ch <- p.state.Clone()
		close(ch)
		p.mu.Unlock()
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
	}
}

// run is the scheduling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Fetch immediately on start.
	p.tick()

	for {
		select {
		case <-p.ctx.Done():
			p.mu.Lock()
			p.stopLocked()
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick starts a scheduled fetch unless one is already outstanding or a
// refresh is invalidating the cache.
func (p *Poller) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	if p.refreshing {
		p.logger.Debug("skipping scheduled fetch, refresh in progress", "seq", p.seq)
		return
	}
	if p.cancelInflight != nil {
		p.logger.Debug("skipping scheduled fetch, previous fetch still outstanding", "seq", p.seq)
		return
	}
	p.beginLocked(false)
}

func (p *Poller) checkRunningLocked() error {
	if p.stopped {
		return ErrStopped
	}
	if !p.running {
		return ErrNotStarted
	}
	return nil
}

// beginLocked issues a new fetch, superseding any outstanding one.
func (p *Poller) beginLocked(refresh bool) {
	if p.cancelInflight != nil {
		p.logger.Debug("superseding outstanding fetch", "seq", p.seq)
		p.cancelInflight()
	}

	p.seq++
	seq := p.seq

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if p.cfg.FetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(p.ctx, p.cfg.FetchTimeout)
	} else {
		ctx, cancel = context.WithCancel(p.ctx)
	}
	p.cancelInflight = cancel

	p.state.Error = ""
	p.state.IsLoading = true
	p.state.Status = model.StatusLoading
	p.publishLocked()

	p.wg.Add(1)
	go p.fetch(ctx, cancel, seq, refresh)
}

// fetch runs one provider call and applies its result if still current.
func (p *Poller) fetch(ctx context.Context, cancel context.CancelFunc, seq uint64, refresh bool) {
	defer p.wg.Done()
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "poller.fetch", trace.WithAttributes(
		attribute.String("poller.id", p.id.String()),
		attribute.Int64("poller.seq", int64(seq)),
		attribute.Bool("poller.refresh", refresh),
	))
	defer span.End()

	start := p.now()
	items, err := p.provider.FetchTickerData(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorMessage(err))
	}

	p.complete(seq, refresh, items, err, time.Since(start))
}

// complete applies a fetch outcome. Results of superseded fetches, results
// arriving after Stop and scheduled results landing while a refresh is
// invalidating the cache are discarded.
func (p *Poller) complete(seq uint64, refresh bool, items []model.TickerItem, err error, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if refresh {
		p.refreshing = false
	}
	if p.stopped || seq != p.seq || (!refresh && p.refreshing) {
		p.logger.Debug("discarding stale fetch result",
			"seq", seq,
			"latest_seq", p.seq,
			"stopped", p.stopped,
		)
		return
	}

	p.cancelInflight = nil
	p.state.IsLoading = false

	if err != nil {
		p.state.Error = errorMessage(err)
		p.state.Status = model.StatusErrored
		p.logger.Warn("ticker fetch failed",
			"seq", seq,
			"refresh", refresh,
			"error", err,
			"duration", elapsed,
		)
	} else {
		p.state.Items = append([]model.TickerItem(nil), items...)
		if p.state.Items == nil {
			p.state.Items = []model.TickerItem{}
		}
		p.state.Error = ""
		p.state.LastUpdated = p.now()
		p.state.Status = model.StatusReady
		p.logger.Debug("ticker fetch complete",
			"seq", seq,
			"refresh", refresh,
			"items", len(items),
			"duration", elapsed,
		)
	}

	p.publishLocked()
}

// publishLocked sends the current state to subscribers, replacing any
// unread snapshot.
func (p *Poller) publishLocked() {
	for ch := range p.subs {
		snap := p.state.Clone()
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// errorMessage derives the display message for a failed fetch.
func errorMessage(err error) string {
	var pe *provider.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
