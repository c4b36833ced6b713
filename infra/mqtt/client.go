// Package mqtt adapts core/mqtt.MessageBus onto Eclipse Paho, grounded on
// the teacher's infra/mqtt/client.go connection/retry/LWT/TLS handling,
// generalized from a single vehicle-command/ack topic pair to the fleet
// coordinator's seven pub/sub topics (§6).
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremqtt "github.com/kilianp07/fleetctl/core/mqtt"
	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/infra/logger"
)

// Config defines the connection parameters for the Paho-backed MessageBus.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

// pahoClient narrows the paho.Client surface this adapter depends on, the
// way the teacher does, so a fake can stand in for tests.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Bus implements core/mqtt.MessageBus over a single Paho connection, fanning
// each topic out to any number of locally registered handlers.
type Bus struct {
	cli        pahoClient
	qos        map[string]byte
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger

	mu       sync.Mutex
	handlers map[string][]*handlerEntry
}

type handlerEntry struct {
	id int
	fn func(payload []byte)
}

// NewBus connects to the MQTT broker described by cfg.
func NewBus(cfg Config) (*Bus, error) {
	opts, err := newClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("fleet_mqtt_bus")
	b := &Bus{
		qos:        cfg.QoS,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		handlers:   make(map[string][]*handlerEntry),
	}
	if b.maxRetries <= 0 {
		b.maxRetries = 3
	}
	if b.backoff <= 0 {
		b.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(paho.Client) { log.Infof("mqtt bus connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("mqtt connection lost: %v", err) }
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) { log.Warnf("mqtt bus reconnecting") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.cli = c
	return b, nil
}

func newClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.loadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

func (c Config) loadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (b *Bus) qosFor(topic string) byte {
	if q, ok := b.qos[topic]; ok {
		return q
	}
	return 0
}

func (b *Bus) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	qos := b.qosFor(topic)
	var publishErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		token := b.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		b.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		time.Sleep(b.backoff * time.Duration(1<<attempt))
	}
	return fmt.Errorf("%w: %v", model.ErrTransportFailure, publishErr)
}

// subscribe ensures a single Paho subscription exists for topic and fans its
// deliveries out to every locally registered handler, returning an
// Unsubscribe that removes only this caller's handler.
func (b *Bus) subscribe(topic string, fn func(payload []byte)) (coremqtt.Unsubscribe, error) {
	b.mu.Lock()
	_, exists := b.handlers[topic]
	id := len(b.handlers[topic])
	entry := &handlerEntry{id: id, fn: fn}
	b.handlers[topic] = append(b.handlers[topic], entry)
	b.mu.Unlock()

	if !exists {
		if token := b.cli.Subscribe(topic, b.qosFor(topic), b.dispatch(topic)); token.Wait() && token.Error() != nil {
			return nil, token.Error()
		}
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[topic]
		for i, e := range entries {
			if e == entry {
				b.handlers[topic] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
	}, nil
}

func (b *Bus) dispatch(topic string) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		b.mu.Lock()
		entries := append([]*handlerEntry(nil), b.handlers[topic]...)
		b.mu.Unlock()
		for _, e := range entries {
			e.fn(msg.Payload())
		}
	}
}

func decodeInto[T any](payload []byte, log logger.Logger, topic string) (T, bool) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		log.Errorf("decode %s payload: %v", topic, err)
		return v, false
	}
	return v, true
}

// Close disconnects the underlying Paho client.
func (b *Bus) Close() error {
	if b.cli != nil && b.cli.IsConnected() {
		b.cli.Disconnect(250)
	}
	return nil
}
