package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectTimeout = 15 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQueueSize      = 64
)

type MQTTOptions struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// MQTTSink mirrors events to <prefix>/events/<type> with QoS 0, not retained.
// Publish only enqueues; a single worker talks to the broker and a full queue drops events.
type MQTTSink struct {
	client mqtt.Client
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

func ConnectMQTT(opts MQTTOptions, logger *slog.Logger) (*MQTTSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	broker := strings.TrimSpace(opts.Broker)
	if broker == "" {
		return nil, errors.New("mqtt broker is empty")
	}
	if strings.HasPrefix(broker, "mqtt://") {
		broker = "tcp://" + strings.TrimPrefix(broker, "mqtt://")
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(broker)
	clientID := strings.TrimSpace(opts.ClientID)
	if clientID == "" {
		clientID = "wol-server-" + time.Now().Format("150405.000")
	}
	clientOpts.SetClientID(clientID)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectRetryInterval(2 * time.Second)
	clientOpts.SetKeepAlive(30 * time.Second)
	clientOpts.SetPingTimeout(10 * time.Second)
	clientOpts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	}
	clientOpts.OnConnect = func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", broker)
	}

	c := mqtt.NewClient(clientOpts)
	tok := c.Connect()
	if !tok.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout after %v", broker, mqttConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return newMQTTSink(c, opts.TopicPrefix, logger), nil
}

func newMQTTSink(c mqtt.Client, prefix string, logger *slog.Logger) *MQTTSink {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "wol-server"
	}
	s := &MQTTSink{
		client: c,
		prefix: prefix,
		logger: logger,
		queue:  make(chan Event, mqttQueueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *MQTTSink) Topic(eventType string) string {
	return s.prefix + "/events/" + eventType
}

func (s *MQTTSink) Publish(ev Event) {
	if !s.client.IsConnected() {
		s.logger.Debug("mqtt not connected, event skipped", "type", ev.Type)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.logger.Warn("mqtt queue full, event dropped", "type", ev.Type)
	}
}

func (s *MQTTSink) run() {
	defer close(s.done)
	for ev := range s.queue {
		s.send(ev)
	}
}

func (s *MQTTSink) send(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("encode event failed", "type", ev.Type, "err", err)
		return
	}
	tok := s.client.Publish(s.Topic(ev.Type), 0, false, payload)
	if !tok.WaitTimeout(mqttPublishTimeout) {
		s.logger.Warn("mqtt publish timed out", "type", ev.Type)
		return
	}
	if err := tok.Error(); err != nil {
		s.logger.Warn("mqtt publish failed", "type", ev.Type, "err", err)
	}
}

// Close flushes queued events and disconnects.
func (s *MQTTSink) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	s.client.Disconnect(1000)
}
