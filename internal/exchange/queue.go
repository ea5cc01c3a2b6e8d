package exchange

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skanray-monitor/internal/hl7"
	"skanray-monitor/internal/models"
)

// MessageQueue buffers raw clinical messages for asynchronous exchange.
// Append and drain share one lock; a message being processed is never
// concurrently appended over.
type MessageQueue struct {
	mu sync.Mutex

	codec    *hl7.Codec
	logger   *zap.Logger
	messages []*models.QueuedMessage
}

// NewMessageQueue creates the queue over the given codec.
func NewMessageQueue(codec *hl7.Codec, logger *zap.Logger) *MessageQueue {
	return &MessageQueue{
		codec:  codec,
		logger: logger,
	}
}

// Enqueue appends a raw payload with status Pending. Growth is
// unbounded; backpressure is a deployment concern.
func (q *MessageQueue) Enqueue(payload string, now time.Time) *models.QueuedMessage {
	msg := &models.QueuedMessage{
		ID:         uuid.NewString(),
		Payload:    payload,
		EnqueuedAt: now,
		Status:     models.StatusPending,
	}

	q.mu.Lock()
	q.messages = append(q.messages, msg)
	pending := len(q.messages)
	q.mu.Unlock()

	q.logger.Debug("Enqueued clinical message",
		zap.String("message_id", msg.ID),
		zap.Int("queue_size", pending),
	)

	return msg
}

// ProcessPending attempts to decode every message that was Pending when
// the call started, returning those newly transitioned to Processed.
// Messages that fail decode stay Pending and remain eligible for a
// future retry; messages enqueued during the pass are not visited until
// the next call. Processing an already-Processed message is a no-op.
func (q *MessageQueue) ProcessPending() []*models.QueuedMessage {
	q.mu.Lock()
	snapshot := make([]*models.QueuedMessage, len(q.messages))
	copy(snapshot, q.messages)
	q.mu.Unlock()

	var processed []*models.QueuedMessage
	for _, msg := range snapshot {
		q.mu.Lock()
		if msg.Status != models.StatusPending {
			q.mu.Unlock()
			continue
		}
		q.mu.Unlock()

		parsed, err := q.codec.Parse([]byte(msg.Payload))
		if err != nil {
			q.logger.Warn("Failed to decode queued message, leaving pending",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}

		q.mu.Lock()
		msg.Parsed = parsed
		msg.Status = models.StatusProcessed
		q.mu.Unlock()

		processed = append(processed, msg)
	}

	if len(processed) > 0 {
		q.logger.Info("Processed pending clinical messages",
			zap.Int("processed_count", len(processed)),
		)
	}

	return processed
}

// All returns a copy of the queue contents, oldest first.
func (q *MessageQueue) All() []*models.QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.QueuedMessage, len(q.messages))
	copy(out, q.messages)
	return out
}

// PendingCount reports how many messages are awaiting processing.
func (q *MessageQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, msg := range q.messages {
		if msg.Status == models.StatusPending {
			count++
		}
	}
	return count
}
