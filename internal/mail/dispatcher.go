package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidtube_mail_messages_total",
		Help: "Outbound mail messages by outcome",
	},
	[]string{"result"},
)

// DispatcherConfig controls the concurrency characteristics of the dispatcher.
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher sends mail in the background. Callers never see delivery errors;
// they are logged and counted.
type Dispatcher struct {
	sender  Sender
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan Message
	wg     sync.WaitGroup
}

var errDispatcherClosed = errors.New("mail dispatcher closed")

// NewDispatcher starts cfg.Workers goroutines delivering through sender.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mail",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	d := &Dispatcher{
		sender:  sender,
		breaker: breaker,
		logger:  logger,
		timeout: cfg.SendTimeout,
		jobs:    make(chan Message, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}
	return d
}

// Send queues msg for delivery without waiting. A full queue drops the message.
func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		messagesTotal.WithLabelValues("dropped").Inc()
		d.logger.Warn("mail dropped", slog.String("to", msg.To), slog.String("error", errDispatcherClosed.Error()))
		return nil
	}

	select {
	case d.jobs <- msg:
	default:
		messagesTotal.WithLabelValues("dropped").Inc()
		d.logger.Warn("mail queue full, message dropped", slog.String("to", msg.To))
	}
	return nil
}

// Shutdown stops accepting messages and waits for queued ones to be delivered.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.jobs {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	_, err := d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.sender.Send(ctx, msg)
	})
	if err != nil {
		result := "failed"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		messagesTotal.WithLabelValues(result).Inc()
		d.logger.Error("mail delivery failed", slog.String("to", msg.To), slog.String("subject", msg.Subject), slog.String("error", err.Error()))
		return
	}
	messagesTotal.WithLabelValues("sent").Inc()
	d.logger.Debug("mail delivered", slog.String("to", msg.To))
}
