package forward

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"skanray-monitor/internal/models"
)

// CNSForwarder pushes encoded clinical messages to the central nursing
// system endpoint. Retries are handled by the HTTP client; a failed
// forward is logged and dropped, never blocking the tick path.
type CNSForwarder struct {
	httpClient *resty.Client
	endpoint   string
	logger     *zap.Logger
}

// NewCNSForwarder creates the forwarder for the given endpoint.
func NewCNSForwarder(endpoint string, timeout time.Duration, logger *zap.Logger) *CNSForwarder {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &CNSForwarder{
		httpClient: client,
		endpoint:   endpoint,
		logger:     logger,
	}
}

// Forward posts one encoded message to the CNS endpoint.
func (f *CNSForwarder) Forward(msg *models.ClinicalMessage) error {
	resp, err := f.httpClient.R().
		SetBody(msg).
		Post(f.endpoint)
	if err != nil {
		return fmt.Errorf("failed to forward message: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("CNS endpoint rejected message: status %d", resp.StatusCode())
	}

	f.logger.Debug("Forwarded clinical message",
		zap.String("control_id", msg.MSH.MessageControlID),
		zap.Int("status", resp.StatusCode()),
	)

	return nil
}
