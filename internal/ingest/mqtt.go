package ingest

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"skanray-monitor/internal/config"
	"skanray-monitor/internal/exchange"
)

// MQTTListener subscribes to the inbound clinical-message topic and
// enqueues every payload for later processing. Decoding happens in the
// queue's processing pass, not here, so a malformed payload costs
// nothing on the ingest path.
type MQTTListener struct {
	client mqtt.Client
	config *config.Config
	queue  *exchange.MessageQueue
	logger *zap.Logger
}

// NewMQTTListener connects to the broker and creates the listener.
func NewMQTTListener(cfg *config.Config, queue *exchange.MessageQueue, logger *zap.Logger) (*MQTTListener, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTListener{
		client: client,
		config: cfg,
		queue:  queue,
		logger: logger,
	}, nil
}

// Start subscribes to the configured topic.
func (l *MQTTListener) Start() error {
	token := l.client.Subscribe(l.config.MQTT.Topic, l.config.MQTT.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		queued := l.queue.Enqueue(string(msg.Payload()), time.Now())
		l.logger.Info("Enqueued inbound MQTT message",
			zap.String("topic", msg.Topic()),
			zap.String("message_id", queued.ID),
			zap.Int("payload_bytes", len(msg.Payload())),
		)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", l.config.MQTT.Topic, token.Error())
	}

	l.logger.Info("MQTT listener started",
		zap.String("broker", l.config.MQTT.Broker),
		zap.String("topic", l.config.MQTT.Topic),
	)

	return nil
}

// Stop unsubscribes and disconnects.
func (l *MQTTListener) Stop() {
	if token := l.client.Unsubscribe(l.config.MQTT.Topic); token.Wait() && token.Error() != nil {
		l.logger.Error("Failed to unsubscribe",
			zap.Error(token.Error()),
		)
	}
	l.client.Disconnect(250)
}
