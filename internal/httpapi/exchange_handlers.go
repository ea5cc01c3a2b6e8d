package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"skanray-monitor/internal/exchange"
)

// ExchangeHandler serves the import affordance over the message queue.
type ExchangeHandler struct {
	queue  *exchange.MessageQueue
	logger *zap.Logger
}

// NewExchangeHandler creates the handler.
func NewExchangeHandler(queue *exchange.MessageQueue, logger *zap.Logger) *ExchangeHandler {
	return &ExchangeHandler{
		queue:  queue,
		logger: logger,
	}
}

// ListMessages returns the queue contents with status.
func (h *ExchangeHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.queue.All()))
}

// ImportMessage enqueues a raw payload. The payload is not validated
// here; validation happens once during the processing pass.
func (h *ExchangeHandler) ImportMessage(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(r, 1<<20)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read body"))
		return
	}
	if payload == "" {
		writeJSON(w, http.StatusBadRequest, Fail("empty payload"))
		return
	}

	msg := h.queue.Enqueue(payload, time.Now())

	h.logger.Info("Imported clinical message",
		zap.String("message_id", msg.ID),
	)

	writeJSON(w, http.StatusAccepted, Ok(msg))
}

// ProcessMessages runs one processing pass and returns the messages
// newly transitioned to Processed. Failed payloads stay pending.
func (h *ExchangeHandler) ProcessMessages(w http.ResponseWriter, r *http.Request) {
	processed := h.queue.ProcessPending()
	writeJSON(w, http.StatusOK, Ok(processed))
}
