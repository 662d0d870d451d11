package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/logger"
)

// Notifier fire-and-forget: Notify никогда не блокирует торговый цикл.
type Notifier interface {
	Notify(ev models.Event)
}

// Sink конкретный канал доставки.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev models.Event) error
}

type Options struct {
	QueueSize  int
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
}

// Async очередь + один воркер, который раздаёт события по синкам.
// Ошибки доставки только логируются, повторов нет.
type Async struct {
	sinks   []Sink
	queue   chan models.Event
	limiter *rate.Limiter
	timeout time.Duration

	pending atomic.Int64
	dropped atomic.Int64

	// mu: отправка в queue под RLock, закрытие под Lock
	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewAsync(opts Options, sinks ...Sink) *Async {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Async{
		sinks:   sinks,
		queue:   make(chan models.Event, opts.QueueSize),
		limiter: rate.NewLimiter(limit, opts.Burst),
		timeout: opts.Timeout,
		done:    make(chan struct{}),
	}
}

func (a *Async) Start() {
	a.startOnce.Do(func() {
		go a.loop()
	})
}

func (a *Async) Notify(ev models.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		logger.Warn("[NOTIFY] closed, dropped %q", ev.Title)
		return
	}
	a.pending.Add(1)
	select {
	case a.queue <- ev:
	default:
		a.pending.Add(-1)
		n := a.dropped.Add(1)
		logger.Warn("[NOTIFY] queue full, dropped %q (total dropped %d)", ev.Title, n)
	}
}

// Dropped сколько событий потеряно из-за переполнения очереди.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

func (a *Async) loop() {
	defer close(a.done)
	for ev := range a.queue {
		a.deliver(ev)
		a.pending.Add(-1)
	}
}

func (a *Async) deliver(ev models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		logger.Warn("[NOTIFY] rate limit wait: %v", err)
		return
	}
	for _, s := range a.sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			logger.Error("[NOTIFY] %s deliver %q: %v", s.Name(), ev.Title, err)
		}
	}
}

// Flush ждёт, пока очередь опустеет, или ctx.
func (a *Async) Flush(ctx context.Context) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for a.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("notify flush: %d pending: %w", a.pending.Load(), ctx.Err())
		case <-t.C:
		}
	}
	return nil
}

// Close дочищает очередь и останавливает воркер. Notify после Close нельзя.
func (a *Async) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})
	select {
	case <-a.done:
	case <-ctx.Done():
	}
	return err
}

// Text плоское представление события для Telegram и логов.
func Text(ev models.Event) string {
	var b strings.Builder
	if ev.Title != "" {
		b.WriteString(ev.Title)
	}
	if ev.Message != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ev.Message)
	}
	for _, f := range ev.Fields {
		fmt.Fprintf(&b, "\n%s: %s", f.Name, f.Value)
	}
	return b.String()
}

// Log пишет события в лог. Используется, когда внешние каналы не настроены.
type Log struct{}

func NewLog() *Log          { return &Log{} }
func (l *Log) Name() string { return "log" }
func (l *Log) Deliver(_ context.Context, ev models.Event) error {
	msg := strings.ReplaceAll(Text(ev), "\n", " | ")
	if ev.Kind == models.EventError {
		logger.Error("[NOTIFY] %s", msg)
		return nil
	}
	logger.Info("[NOTIFY] %s", msg)
	return nil
}
