package store

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"tensord/internal/tensor"
)

// MQTTConfig configures MQTT replication.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Timeout  time.Duration
	Log      zerolog.Logger
}

// publisher is the subset of mqtt.Client the replicator needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTReplicator publishes every committed tensor, npy-encoded and
// retained, to <topic>/<key>.
type MQTTReplicator struct {
	client  publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// DialMQTT connects to the broker and returns a replicator.
func DialMQTT(cfg MQTTConfig) (*MQTTReplicator, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	log := cfg.Log
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(10 * time.Second)
	opts.AutoReconnect = true
	opts.CleanSession = true
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost")
	}

	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out after %s", cfg.Broker, cfg.Timeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	log.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("mqtt replication enabled")
	return newMQTTReplicator(c, cfg), nil
}

func newMQTTReplicator(c publisher, cfg MQTTConfig) *MQTTReplicator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &MQTTReplicator{
		client:  c,
		topic:   strings.TrimSuffix(cfg.Topic, "/"),
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
	}
}

// TopicFor returns the topic a key is published on.
func (r *MQTTReplicator) TopicFor(key string) string {
	if r.topic == "" {
		return key
	}
	return r.topic + "/" + key
}

func (r *MQTTReplicator) Replicate(key string, t *tensor.Handle) error {
	b, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	tok := r.client.Publish(r.TopicFor(key), r.qos, true, b)
	if !tok.WaitTimeout(r.timeout) {
		return fmt.Errorf("mqtt publish %s: timed out", key)
	}
	return tok.Error()
}

// Close disconnects, giving in-flight publishes 250ms to drain.
func (r *MQTTReplicator) Close() {
	r.client.Disconnect(250)
}
