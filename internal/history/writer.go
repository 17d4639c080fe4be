package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/ticker-feed/internal/model"
)

const insertSnapshotSQL = `
	INSERT INTO ticker_snapshots (symbol, name, price, change, percent_change, is_positive, fetched_at, instance_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (symbol, fetched_at) DO NOTHING
`

// BatchSender is satisfied by *pgxpool.Pool and *pgx.Conn.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriterConfig holds batching settings.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	FlushTimeout  time.Duration // Bound on the final flush during Stop
	InstanceID    string
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
		FlushTimeout:  10 * time.Second,
	}
}

// WriterMetrics tracks writer activity.
type WriterMetrics struct {
	Snapshots int64 // Successful fetches observed
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

type snapshotRow struct {
	Symbol        string
	Name          string
	Price         float64
	Change        float64
	PercentChange float64
	IsPositive    bool
	FetchedAt     time.Time
}

// Writer batches ticker snapshots into the ticker_snapshots table.
type Writer struct {
	cfg    WriterConfig
	db     BatchSender
	logger *slog.Logger

	// Batching
	batch    []snapshotRow
	batchMu  sync.Mutex
	lastSeen time.Time
	metrics  WriterMetrics

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWriter creates a new Writer.
func NewWriter(cfg WriterConfig, db BatchSender, logger *slog.Logger) *Writer {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultWriterConfig().FlushTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]snapshotRow, 0, cfg.BatchSize),
	}
}

// Start consumes state updates until the channel closes or Stop is called.
func (w *Writer) Start(ctx context.Context, updates <-chan model.PollerState) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.consumeLoop(updates)

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("history writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts down the writer and flushes pending rows.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping history writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("history writer stop timed out")
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.FlushTimeout)
	defer cancel()
	w.flush(flushCtx)

	w.logger.Info("history writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *Writer) consumeLoop(updates <-chan model.PollerState) {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			w.handleState(s)
		}
	}
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

// handleState queues rows for a state whose LastUpdated advanced.
func (w *Writer) handleState(s model.PollerState) {
	if s.LastUpdated.IsZero() || len(s.Items) == 0 {
		return
	}

	w.batchMu.Lock()
	if !s.LastUpdated.After(w.lastSeen) {
		w.batchMu.Unlock()
		return
	}
	w.lastSeen = s.LastUpdated
	w.metrics.Snapshots++
	for _, item := range s.Items {
		w.batch = append(w.batch, transform(item, s.LastUpdated))
	}
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

func transform(item model.TickerItem, fetchedAt time.Time) snapshotRow {
	return snapshotRow{
		Symbol:        item.Symbol,
		Name:          item.Name,
		Price:         item.Price,
		Change:        item.Change,
		PercentChange: item.PercentChange,
		IsPositive:    item.IsPositive,
		FetchedAt:     fetchedAt.UTC().Truncate(time.Microsecond),
	}
}

// flush writes the current batch to the database. Failed batches are dropped.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]snapshotRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed ticker snapshots",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(ctx context.Context, rows []snapshotRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertSnapshotSQL,
			r.Symbol, r.Name, r.Price, r.Change, r.PercentChange, r.IsPositive, r.FetchedAt, w.cfg.InstanceID)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
