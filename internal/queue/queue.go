package queue

import (
	"context"
	"fmt"
)

const (
	// QueueBatchDispatch carries one message per batch to submit.
	QueueBatchDispatch = "batch.dispatch"
	// QueueCompletionIngest carries one message per detected completion document.
	QueueCompletionIngest = "completion.ingest"
)

// Publisher publishes messages to a work queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
	Close() error
}

// MessageHandler handles one consumed delivery body. Returning an error
// wrapped around ErrReject dead-letters the delivery; any other error
// requeues it.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer consumes deliveries from a work queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// DLQName returns the dead-letter queue name for a work queue,
// e.g. dlq.batch.dispatch.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns every work queue the topology declares.
func WorkQueueNames() []string {
	return []string{QueueBatchDispatch, QueueCompletionIngest}
}

// DLQNames returns every dead-letter queue the topology declares.
func DLQNames() []string {
	work := WorkQueueNames()
	queues := make([]string, 0, len(work))
	for _, name := range work {
		queues = append(queues, DLQName(name))
	}
	return queues
}
