// Package audit keeps a bounded in-memory trail of redaction activity.
// Events carry metadata only (lengths, counts, rule names, timing); the
// processed text and the detected values never enter an event.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savegress/cliniredact/pkg/models"
)

// Config holds audit trail configuration.
type Config struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	MaxEvents  int  `yaml:"max_events"`
}

// Logger collects redaction events through a buffered channel so the request
// path never blocks on the trail.
type Logger struct {
	config  *Config
	events  []models.RedactionEvent
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	eventCh chan models.RedactionEvent
}

// NewLogger creates an audit logger.
func NewLogger(cfg *Config) *Logger {
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1000
	}
	return &Logger{
		config:  cfg,
		stopCh:  make(chan struct{}),
		eventCh: make(chan models.RedactionEvent, buffer),
	}
}

// Start launches the collection goroutine.
func (l *Logger) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.mu.Unlock()

	go l.processEvents(ctx)
	return nil
}

// Stop halts collection. Buffered events not yet drained are dropped.
func (l *Logger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		close(l.stopCh)
		l.running = false
	}
}

func (l *Logger) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case event := <-l.eventCh:
			l.append(event)
		}
	}
}

func (l *Logger) append(event models.RedactionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	if max := l.config.MaxEvents; max > 0 && len(l.events) > max {
		l.events = l.events[len(l.events)-max:]
	}
}

// LogRedaction records one redaction request. The event is dropped when the
// trail is disabled or the buffer is full.
func (l *Logger) LogRedaction(event models.RedactionEvent) {
	if !l.config.Enabled {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Recorded.IsZero() {
		event.Recorded = time.Now().UTC()
	}

	select {
	case l.eventCh <- event:
	default:
	}
}

// Events returns a copy of the collected events, oldest first.
func (l *Logger) Events() []models.RedactionEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.RedactionEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Stats summarizes the collected trail.
type Stats struct {
	TotalEvents int            `json:"total_events"`
	TotalSpans  int            `json:"total_spans"`
	ByOutcome   map[string]int `json:"by_outcome"`
}

// Stats computes trail totals.
func (l *Logger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{ByOutcome: make(map[string]int)}
	stats.TotalEvents = len(l.events)
	for _, e := range l.events {
		stats.TotalSpans += e.SpanCount
		stats.ByOutcome[e.Outcome]++
	}
	return stats
}
