package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/metrics"
)

var (
	// ErrClosed is returned by Record after Close.
	ErrClosed = errors.New("audit recorder closed")
	// ErrBufferFull is returned under DropPolicyDrop when the queue is full.
	ErrBufferFull = errors.New("audit buffer full")
)

// Sink names.
const (
	SinkStdout = "stdout"
	SinkFile   = "file"
)

// DropPolicy decides what Record does when the queue is full.
type DropPolicy string

const (
	DropPolicyDrop  DropPolicy = "drop"
	DropPolicyBlock DropPolicy = "block"
)

// Config configures a Recorder.
type Config struct {
	Enabled       bool
	Sink          string
	FilePath      string
	BufferSize    int
	FlushInterval time.Duration
	DropPolicy    DropPolicy
}

// Recorder queues change-trail events and writes them from a single worker.
// A nil or disabled Recorder accepts and discards every event.
type Recorder struct {
	cfg  Config
	log  logger.Logger
	sink Sink
	now  func() time.Time

	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewRecorder opens the configured sink and starts the worker.
func NewRecorder(cfg Config, log logger.Logger) (*Recorder, error) {
	if log == nil {
		log = logger.GetDefault()
	}
	if !cfg.Enabled {
		return &Recorder{cfg: cfg, log: log}, nil
	}

	sink, err := openSink(cfg)
	if err != nil {
		return nil, err
	}
	return newRecorder(cfg, sink, log), nil
}

func newRecorder(cfg Config, sink Sink, log logger.Logger) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.DropPolicy == "" {
		cfg.DropPolicy = DropPolicyDrop
	}
	cfg.Enabled = true

	r := &Recorder{
		cfg:    cfg,
		log:    log,
		sink:   sink,
		now:    time.Now,
		events: make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	go r.run()

	r.log.Info("Audit trail enabled",
		logger.String("sink", cfg.Sink),
		logger.Int("buffer", cfg.BufferSize),
		logger.String("drop_policy", string(cfg.DropPolicy)))
	return r
}

// Enabled reports whether events are being written.
func (r *Recorder) Enabled() bool {
	return r != nil && r.cfg.Enabled
}

// Record stamps event with an id and timestamp when missing and queues it.
func (r *Recorder) Record(ctx context.Context, event Event) (string, error) {
	if !r.Enabled() {
		return "", nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		metrics.AuditEventsDroppedTotal.WithLabelValues(r.cfg.Sink, "closed").Inc()
		return "", ErrClosed
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}

	select {
	case r.events <- event:
		return event.ID, nil
	default:
	}

	if r.cfg.DropPolicy == DropPolicyDrop {
		metrics.AuditEventsDroppedTotal.WithLabelValues(r.cfg.Sink, "buffer_full").Inc()
		return "", ErrBufferFull
	}

	select {
	case r.events <- event:
		return event.ID, nil
	case <-ctx.Done():
		metrics.AuditEventsDroppedTotal.WithLabelValues(r.cfg.Sink, "context_cancelled").Inc()
		return "", ctx.Err()
	}
}

// Close drains queued events, flushes and closes the sink.
func (r *Recorder) Close(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}

	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
	})

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.sink.Close(ctx)
}

func (r *Recorder) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-r.events:
			if !ok {
				r.flush()
				return
			}
			r.write(event)
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *Recorder) write(event Event) {
	if err := r.sink.Write(event); err != nil {
		r.log.Error("Failed to write audit event",
			logger.String("action", event.Action),
			logger.Error(err))
		metrics.AuditEventsTotal.WithLabelValues(r.cfg.Sink, "error").Inc()
		return
	}
	metrics.AuditEventsTotal.WithLabelValues(r.cfg.Sink, "written").Inc()
}

func (r *Recorder) flush() {
	start := time.Now()
	if err := r.sink.Flush(); err != nil {
		r.log.Error("Failed to flush audit sink", logger.Error(err))
		return
	}
	metrics.AuditSinkFlushDuration.WithLabelValues(r.cfg.Sink).Observe(time.Since(start).Seconds())
}
