package broker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Return codes reported to the acknowledgement callback.
const (
	CodeAccepted     byte = packets.Accepted
	CodeNetworkError byte = packets.ErrNetworkError
)

// Transport is the asynchronous broker session used by ConnectionManager.
// Connect returns once the attempt has started; the outcome is delivered later
// through onAck on the transport's own goroutine. onLost fires when an
// established session drops.
type Transport interface {
	Connect(onAck func(code byte), onLost func(err error)) error
	Publish(topic string, qos byte, retain bool, payload []byte) error
	Disconnect()
}

// Options configures the MQTT transport.
type Options struct {
	Host     string
	Port     int
	ClientID string
	// UniqueSuffix appends a short random suffix to ClientID.
	UniqueSuffix bool
	KeepAlive    time.Duration
}

// mqttTransport implements Transport with the Eclipse Paho client.
type mqttTransport struct {
	opts     Options
	clientID string
	log      zerolog.Logger
	client   mqtt.Client
}

// NewMQTTTransport creates a Transport backed by paho. Automatic reconnection
// is disabled; a dropped session stays down. The client identifier is fixed
// for the transport's lifetime, so re-dials reuse it.
func NewMQTTTransport(opts Options, log zerolog.Logger) Transport {
	id := opts.ClientID
	if opts.UniqueSuffix {
		id = UniqueClientID(id)
	}
	return &mqttTransport{opts: opts, clientID: id, log: log.With().Str("client_id", id).Logger()}
}

// UniqueClientID returns base with an 8-character random suffix. Brokers evict
// the older of two sessions sharing an identifier.
func UniqueClientID(base string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Connect dials the broker in the background.
func (t *mqttTransport) Connect(onAck func(code byte), onLost func(err error)) error {
	if t.opts.Host == "" {
		return errors.New("mqtt: broker host is required")
	}

	o := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", t.opts.Host, t.opts.Port)).
		SetClientID(t.clientID).
		SetKeepAlive(t.opts.KeepAlive).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetCleanSession(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			onLost(err)
		})

	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(0)
	}
	t.client = mqtt.NewClient(o)

	tok := t.client.Connect()
	go func() {
		tok.Wait()
		code := CodeAccepted
		if ct, ok := tok.(*mqtt.ConnectToken); ok {
			code = ct.ReturnCode()
		}
		if err := tok.Error(); err != nil {
			t.log.Debug().Err(err).Msg("mqtt connect error")
			if code == CodeAccepted {
				code = CodeNetworkError
			}
		}
		onAck(code)
	}()
	return nil
}

// Publish queues the message and returns without waiting for the broker's
// PUBACK. Delivery failures are logged when the token completes.
func (t *mqttTransport) Publish(topic string, qos byte, retain bool, payload []byte) error {
	if t.client == nil {
		return errors.New("mqtt: not connected")
	}
	tok := t.client.Publish(topic, qos, retain, payload)
	go func() {
		<-tok.Done()
		if err := tok.Error(); err != nil {
			t.log.Warn().Err(err).Str("topic", topic).Int("bytes", len(payload)).Msg("publish failed")
		}
	}()
	return nil
}

// Disconnect closes the session, allowing in-flight work 250ms to drain.
func (t *mqttTransport) Disconnect() {
	if t.client == nil {
		return
	}
	t.client.Disconnect(250)
}

// CodeText describes an MQTT CONNACK return code.
func CodeText(code byte) string {
	if s, ok := packets.ConnackReturnCodes[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown return code %d", code)
}
