package provider

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rickgao/ticker-feed/internal/model"
)

const (
	// DefaultTTL is how long fetched items are served from memory.
	DefaultTTL = 30 * time.Second

	invalidateTimeout = 2 * time.Second
)

// ErrNoQuotes is returned when the source answered without any configured symbol.
var ErrNoQuotes = errors.New("no quotes returned")

// Option configures a Provider.
type Option func(*Provider)

// WithTTL sets the cache lifetime. A non-positive TTL disables caching.
func WithTTL(d time.Duration) Option {
	return func(p *Provider) {
		p.ttl = d
	}
}

// WithSharedCache adds a second-level cache shared between processes.
func WithSharedCache(s Store) Option {
	return func(p *Provider) {
		p.shared = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// Provider serves ticker items for a fixed symbol list with caching.
type Provider struct {
	source  Source
	symbols []Symbol
	ttl     time.Duration
	shared  Store
	logger  *slog.Logger
	now     func() time.Time

	group singleflight.Group

	mu           sync.Mutex
	gen          uint64
	invalidating int // InvalidateCache calls still deleting the shared entry
	items        []model.TickerItem
	fetchedAt    time.Time
}

// New creates a Provider for the given source and symbols.
func New(source Source, symbols []Symbol, opts ...Option) *Provider {
	p := &Provider{
		source:  source,
		symbols: append([]Symbol(nil), symbols...),
		ttl:     DefaultTTL,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Symbols returns the configured symbol list.
func (p *Provider) Symbols() []Symbol {
	return append([]Symbol(nil), p.symbols...)
}

// FetchTickerData returns the latest items in configured symbol order.
// All failures are reported as *ProviderError.
func (p *Provider) FetchTickerData(ctx context.Context) ([]model.TickerItem, error) {
	p.mu.Lock()
	gen := p.gen
	if items, ok := p.freshLocked(); ok {
		p.mu.Unlock()
		return items, nil
	}
	p.mu.Unlock()

	// Callers of one generation share a single source call bounded by the
	// first caller's context.
	ch := p.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return p.load(ctx, gen)
	})

	select {
	case <-ctx.Done():
		return nil, wrapError("fetch quotes", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		items := res.Val.([]model.TickerItem)
		return cloneItems(items), nil
	}
}

// InvalidateCache drops every cached copy so the next fetch hits the source.
// A fetch already in flight when this is called will not repopulate the cache.
// The generation moves again once the shared entry is gone, so a fetch that
// started during the delete cannot cache what it read.
func (p *Provider) InvalidateCache() {
	p.mu.Lock()
	p.gen++
	p.items = nil
	p.fetchedAt = time.Time{}
	if p.shared == nil {
		p.mu.Unlock()
		return
	}
	p.invalidating++
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()
	if err := p.shared.Delete(ctx); err != nil {
		p.logger.Warn("failed to invalidate shared ticker cache", "error", err)
	}

	p.mu.Lock()
	p.invalidating--
	p.gen++
	p.items = nil
	p.fetchedAt = time.Time{}
	p.mu.Unlock()
}

// load fetches from the shared cache or the source and fills the caches
// if no invalidation happened meanwhile.
func (p *Provider) load(ctx context.Context, gen uint64) ([]model.TickerItem, error) {
	if items, fetchedAt, ok := p.loadShared(ctx); ok {
		p.store(gen, items, fetchedAt)
		return items, nil
	}

	start := p.now()
	raw, err := p.source.Quotes(ctx, p.symbols)
	if err != nil {
		p.logger.Warn("quote fetch failed",
			"source", p.source.Name(),
			"error", err,
			"duration", time.Since(start),
		)
		return nil, wrapError("fetch quotes", err)
	}

	items := p.order(raw)
	if len(items) == 0 {
		return nil, &ProviderError{Op: "fetch quotes", Message: ErrNoQuotes.Error(), Err: ErrNoQuotes}
	}

	fetchedAt := p.now()
	p.logger.Debug("fetched quotes",
		"source", p.source.Name(),
		"requested", len(p.symbols),
		"returned", len(items),
		"duration", time.Since(start),
	)

	if p.store(gen, items, fetchedAt) && p.shared != nil && p.ttl > 0 {
		if err := p.shared.Save(ctx, items, fetchedAt); err != nil {
			p.logger.Warn("failed to write shared ticker cache", "error", err)
		}
	}

	return items, nil
}

// loadShared reads the shared cache. It reports a miss while an
// invalidation is deleting the entry.
func (p *Provider) loadShared(ctx context.Context) ([]model.TickerItem, time.Time, bool) {
	if p.shared == nil || p.ttl <= 0 {
		return nil, time.Time{}, false
	}

	p.mu.Lock()
	skip := p.invalidating > 0
	p.mu.Unlock()
	if skip {
		return nil, time.Time{}, false
	}

	items, fetchedAt, ok, err := p.shared.Load(ctx)
	if err != nil {
		p.logger.Warn("failed to read shared ticker cache", "error", err)
		return nil, time.Time{}, false
	}
	if !ok || len(items) == 0 || p.now().Sub(fetchedAt) >= p.ttl {
		return nil, time.Time{}, false
	}
	return items, fetchedAt, true
}

// store caches items unless the generation moved on. Reports whether it did.
func (p *Provider) store(gen uint64, items []model.TickerItem, fetchedAt time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.ttl <= 0 {
		return false
	}
	p.items = cloneItems(items)
	p.fetchedAt = fetchedAt
	return true
}

func (p *Provider) freshLocked() ([]model.TickerItem, bool) {
	if p.ttl <= 0 || len(p.items) == 0 {
		return nil, false
	}
	if p.now().Sub(p.fetchedAt) >= p.ttl {
		return nil, false
	}
	return cloneItems(p.items), true
}

// order returns items in configured symbol order, dropping unknown symbols.
func (p *Provider) order(raw []model.TickerItem) []model.TickerItem {
	bySymbol := make(map[string]model.TickerItem, len(raw))
	for _, it := range raw {
		bySymbol[it.Symbol] = it
	}

	out := make([]model.TickerItem, 0, len(p.symbols))
	for _, s := range p.symbols {
		if it, ok := bySymbol[s.Symbol]; ok {
			out = append(out, it)
		}
	}
	return out
}

func cloneItems(items []model.TickerItem) []model.TickerItem {
	return append([]model.TickerItem(nil), items...)
}
