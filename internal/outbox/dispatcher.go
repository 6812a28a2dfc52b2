package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/repository"
)

// Sink delivers one outbox payload somewhere external
type Sink interface {
	Deliver(ctx context.Context, topic string, payload []byte) error
}

// Dispatcher drains the outbox: poll, deliver, retry with backoff, and
// drop with a log line once a message exhausts its attempts. Side-effect
// failure never reaches the request that enqueued the message.
type Dispatcher struct {
	repo         repository.OutboxRepository
	sinks        map[string]Sink
	pollInterval time.Duration
	maxAttempts  int
	batchSize    int
	logger       *zap.Logger
}

// NewDispatcher creates a new outbox dispatcher. Sinks are keyed by topic.
func NewDispatcher(repo repository.OutboxRepository, sinks map[string]Sink, pollInterval time.Duration, maxAttempts int, logger *zap.Logger) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		repo:         repo,
		sinks:        sinks,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		batchSize:    50,
		logger:       logger,
	}
}

// Run polls until the context is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain processes one batch of due messages
func (d *Dispatcher) Drain(ctx context.Context) {
	messages, err := d.repo.FetchDue(ctx, time.Now(), d.batchSize)
	if err != nil {
		d.logger.Error("Failed to fetch outbox messages", zap.Error(err))
		return
	}

	for _, msg := range messages {
		sink, ok := d.sinks[msg.Topic]
		if !ok {
			d.logger.Error("No sink for outbox topic, dropping message",
				zap.String("topic", msg.Topic),
				zap.String("id", msg.ID.String()),
			)
			if err := d.repo.MarkFailed(ctx, msg.ID); err != nil {
				d.logger.Error("Failed to mark outbox message failed", zap.Error(err))
			}
			continue
		}

		if err := sink.Deliver(ctx, msg.Topic, msg.Payload); err != nil {
			attempts := msg.Attempts + 1
			if attempts >= d.maxAttempts {
				d.logger.Error("Outbox message exhausted retries, dropping",
					zap.String("topic", msg.Topic),
					zap.String("id", msg.ID.String()),
					zap.Int("attempts", attempts),
					zap.Error(err),
				)
				if merr := d.repo.MarkFailed(ctx, msg.ID); merr != nil {
					d.logger.Error("Failed to mark outbox message failed", zap.Error(merr))
				}
				continue
			}

			next := time.Now().Add(backoff(attempts))
			d.logger.Warn("Outbox delivery failed, will retry",
				zap.String("topic", msg.Topic),
				zap.Int("attempts", attempts),
				zap.Time("next_attempt", next),
				zap.Error(err),
			)
			if merr := d.repo.Reschedule(ctx, msg.ID, attempts, next); merr != nil {
				d.logger.Error("Failed to reschedule outbox message", zap.Error(merr))
			}
			continue
		}

		if err := d.repo.MarkDelivered(ctx, msg.ID); err != nil {
			d.logger.Error("Failed to mark outbox message delivered", zap.Error(err))
		}
	}
}

// backoff doubles per attempt starting at one second, capped at a minute
func backoff(attempts int) time.Duration {
	d := time.Second << uint(attempts-1)
	if d > time.Minute {
		return time.Minute
	}
	return d
}
