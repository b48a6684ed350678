// Package broker owns the message-broker session used to ship samples.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Broker defaults.
const (
	DefaultPort           = 1883
	DefaultKeepAlive      = 60 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultConnectTries   = 5
	DefaultPollInterval   = time.Second

	// QoS is the MQTT quality-of-service level used for samples.
	QoS byte = 1
)

var (
	// ErrNotConnected is returned by Publish when the session is not established.
	ErrNotConnected = errors.New("broker not connected")
	// ErrConnectTimeout is returned by WaitConnected when the deadline passes.
	ErrConnectTimeout = errors.New("timed out waiting for broker connection")
	// ErrConnectRefused is returned by WaitConnected when every attempt was refused.
	ErrConnectRefused = errors.New("broker refused connection")
	// ErrConnectionLost is returned by WaitConnected when the last accepted
	// session dropped before the wait observed it and no attempts remain.
	ErrConnectionLost = errors.New("broker connection lost")
)

// State is the broker connection state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config holds the startup-barrier settings.
type Config struct {
	// ConnectTimeout bounds WaitConnected.
	ConnectTimeout time.Duration
	// MaxAttempts is the number of dial attempts WaitConnected may make,
	// including the first one made by Connect.
	MaxAttempts int
	// PollInterval is the initial poll delay; it doubles up to MaxPollInterval.
	PollInterval    time.Duration
	MaxPollInterval time.Duration
}

// DefaultConfig returns the startup-barrier defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  DefaultConnectTimeout,
		MaxAttempts:     DefaultConnectTries,
		PollInterval:    DefaultPollInterval,
		MaxPollInterval: 8 * time.Second,
	}
}

// ConnectionManager tracks the broker session state. The state is written from
// the transport's callback goroutine and read by the capture loop, so it is
// held in an atomic.
type ConnectionManager struct {
	cfg       Config
	transport Transport
	log       zerolog.Logger

	state    atomic.Int32
	lastCode atomic.Uint32
	acks     atomic.Uint64
}

// NewConnectionManager creates a ConnectionManager over the given transport.
func NewConnectionManager(t Transport, cfg Config, log zerolog.Logger) *ConnectionManager {
	def := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = cfg.PollInterval
	}
	return &ConnectionManager{cfg: cfg, transport: t, log: log}
}

// Connect starts an asynchronous session. The result arrives through the
// acknowledgement callback; use WaitConnected to block on it.
func (m *ConnectionManager) Connect() error {
	m.state.Store(int32(Connecting))
	if err := m.transport.Connect(m.onAck, m.onLost); err != nil {
		m.state.Store(int32(Disconnected))
		return fmt.Errorf("connect: %w", err)
	}
	m.log.Info().Msg("connecting to broker")
	return nil
}

// onAck handles the broker's connection acknowledgement.
func (m *ConnectionManager) onAck(code byte) {
	m.lastCode.Store(uint32(code))
	m.acks.Add(1)
	if code == CodeAccepted {
		m.state.Store(int32(Connected))
		m.log.Info().Uint8("code", code).Msg("connected to broker")
		return
	}
	m.state.Store(int32(Disconnected))
	m.log.Error().Uint8("code", code).Str("reason", CodeText(code)).Msg("bad broker connection")
}

// onLost handles a dropped session. There is no automatic reconnection.
func (m *ConnectionManager) onLost(err error) {
	m.state.Store(int32(Disconnected))
	m.log.Warn().Err(err).Msg("disconnected from broker")
}

// State returns the current connection state.
func (m *ConnectionManager) State() State {
	return State(m.state.Load())
}

// Connected reports whether the session is established.
func (m *ConnectionManager) Connected() bool {
	return m.State() == Connected
}

// WaitConnected blocks until the session is established. It polls with
// exponential backoff and gives up after ConnectTimeout. A refused
// acknowledgement, or an accepted session that dropped before it was observed,
// is re-dialled up to MaxAttempts dials in total.
func (m *ConnectionManager) WaitConnected(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	bo := newBackoff(m.cfg.PollInterval, m.cfg.MaxPollInterval)
	attempts := 1
	seenAcks := uint64(0)

	for {
		switch m.State() {
		case Connected:
			return nil
		case Disconnected:
			// Only a fresh acknowledgement counts against the attempt budget
			if acks := m.acks.Load(); acks > seenAcks {
				seenAcks = acks
				code := byte(m.lastCode.Load())
				lost := code == CodeAccepted
				if attempts >= m.cfg.MaxAttempts {
					if lost {
						return fmt.Errorf("%w after %d attempts", ErrConnectionLost, attempts)
					}
					return fmt.Errorf("%w after %d attempts: %s", ErrConnectRefused, attempts, CodeText(code))
				}
				attempts++
				m.log.Info().Int("attempt", attempts).Bool("dropped", lost).Msg("retrying broker connection")
				if err := m.Connect(); err != nil {
					return err
				}
			}
		}

		m.log.Debug().Str("state", m.State().String()).Msg("waiting for broker")
		if err := bo.Wait(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s", ErrConnectTimeout, m.cfg.ConnectTimeout)
			}
			return err
		}
	}
}

// Publish sends payload on topic with QoS 1 and retain=false. It never touches
// the transport unless the session is established.
func (m *ConnectionManager) Publish(topic string, payload []byte) error {
	if !m.Connected() {
		return ErrNotConnected
	}
	return m.transport.Publish(topic, QoS, false, payload)
}

// Disconnect tears the session down.
func (m *ConnectionManager) Disconnect() {
	m.transport.Disconnect()
	m.state.Store(int32(Disconnected))
	m.log.Info().Msg("broker session closed")
}
