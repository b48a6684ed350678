package broker

import (
	"errors"
	"sync"
)

// Message is a publish call recorded by MockTransport.
type Message struct {
	Topic   string
	QoS     byte
	Retain  bool
	Payload []byte
}

// MockTransport is a test implementation of the Transport interface.
// Each Connect call acknowledges with the next scripted code, or CodeAccepted
// once the script is exhausted. With Manual set, acknowledgements are held
// until Ack is called.
type MockTransport struct {
	mu       sync.Mutex
	codes    []byte
	manual   bool
	onAck    func(code byte)
	onLost   func(err error)
	dials    int
	messages []Message
	closed   int
	pubErr   error
}

// NewMockTransport creates a MockTransport that acknowledges with codes in order.
func NewMockTransport(codes ...byte) *MockTransport {
	return &MockTransport{codes: codes}
}

// SetManual holds acknowledgements until Ack is called.
func (m *MockTransport) SetManual(manual bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manual = manual
}

// SetPublishError sets the error returned by Publish.
func (m *MockTransport) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pubErr = err
}

// Connect records the dial and acknowledges it unless in manual mode.
func (m *MockTransport) Connect(onAck func(code byte), onLost func(err error)) error {
	m.mu.Lock()
	m.dials++
	m.onAck = onAck
	m.onLost = onLost
	if m.manual {
		m.mu.Unlock()
		return nil
	}
	code := m.nextCode()
	m.mu.Unlock()

	go onAck(code)
	return nil
}

func (m *MockTransport) nextCode() byte {
	if len(m.codes) == 0 {
		return CodeAccepted
	}
	code := m.codes[0]
	m.codes = m.codes[1:]
	return code
}

// Ack delivers an acknowledgement for the last dial.
func (m *MockTransport) Ack(code byte) {
	m.mu.Lock()
	cb := m.onAck
	m.mu.Unlock()
	if cb != nil {
		cb(code)
	}
}

// Drop simulates the broker closing an established session.
func (m *MockTransport) Drop() {
	m.mu.Lock()
	cb := m.onLost
	m.mu.Unlock()
	if cb != nil {
		cb(errors.New("connection reset by peer"))
	}
}

// Publish records the message.
func (m *MockTransport) Publish(topic string, qos byte, retain bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pubErr != nil {
		return m.pubErr
	}
	m.messages = append(m.messages, Message{
		Topic:   topic,
		QoS:     qos,
		Retain:  retain,
		Payload: append([]byte(nil), payload...),
	})
	return nil
}

// Disconnect counts the call.
func (m *MockTransport) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
}

// Messages returns a copy of the published messages.
func (m *MockTransport) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Dials returns how many times Connect was called.
func (m *MockTransport) Dials() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials
}

// Disconnects returns how many times Disconnect was called.
func (m *MockTransport) Disconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
