package models

import (
	"time"
)

// MessageStatus is the processing state of a queued message. The
// transition Pending -> Processed is one-way; a Processed message is
// never revisited.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusProcessed MessageStatus = "processed"
)

// QueuedMessage is a buffered raw message awaiting (or having
// completed) decode processing. Parsed is attached when the payload
// decodes successfully.
type QueuedMessage struct {
	ID         string           `json:"id"`
	Payload    string           `json:"payload"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
	Status     MessageStatus    `json:"status"`
	Parsed     *ClinicalMessage `json:"parsed,omitempty"`
}
