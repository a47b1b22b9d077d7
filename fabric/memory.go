package fabric

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// Memory is a fabric backend that keeps channels in memory. Like the
// directory backend, written data is published when the channel is closed.
type Memory struct {
	mu       sync.Mutex
	channels map[string][]byte
	writing  map[string]struct{}
	messages []Message
}

// Create an empty in-memory fabric.
func NewMemory() *Memory {
	return &Memory{
		channels: make(map[string][]byte),
		writing:  make(map[string]struct{}),
	}
}

// Open a named channel.
func (m *Memory) Open(name string, flags ChannelFlags, mode Mode) (Channel, error) {
	if name == "" {
		return nil, newError(CodeInvalidArgument, name, ErrEmptyName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if mode == ModeWrite {
		if _, busy := m.writing[name]; busy {
			return nil, newError(CodeAlreadyExists, name, ErrChannelExists)
		}
		m.writing[name] = struct{}{}
		return &memWriter{fabric: m, name: name}, nil
	}

	data, exists := m.channels[name]
	if !exists {
		return nil, newError(CodeChannelNotFound, name, ErrNotFound)
	}
	return &memReader{
		fabric:    m,
		name:      name,
		reader:    bytes.NewReader(data),
		ephemeral: flags&Ephemeral != 0,
	}, nil
}

// Record a side band message.
func (m *Memory) Post(msg Message) {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
}

// Get a copy of all posted messages.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Publish a channel directly.
func (m *Memory) Put(name string, data []byte) {
	m.mu.Lock()
	m.channels[name] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Get the contents of a published channel.
func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, exists := m.channels[name]
	return data, exists
}

// List the names of all published channels in lexicographic order.
func (m *Memory) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memWriter struct {
	fabric *Memory
	name   string
	buf    bytes.Buffer
}

func (w *memWriter) Name() string {
	return w.name
}

func (w *memWriter) Read([]byte) (int, error) {
	return 0, fmt.Errorf("channel %s is write-only", w.name)
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.fabric.mu.Lock()
	w.fabric.channels[w.name] = w.buf.Bytes()
	delete(w.fabric.writing, w.name)
	w.fabric.mu.Unlock()
	return nil
}

func (w *memWriter) Abort() error {
	w.fabric.mu.Lock()
	delete(w.fabric.writing, w.name)
	w.fabric.mu.Unlock()
	w.buf.Reset()
	return nil
}

type memReader struct {
	fabric    *Memory
	name      string
	reader    *bytes.Reader
	ephemeral bool
}

func (r *memReader) Name() string {
	return r.name
}

func (r *memReader) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r *memReader) Write([]byte) (int, error) {
	return 0, fmt.Errorf("channel %s is read-only", r.name)
}

func (r *memReader) Abort() error {
	return nil
}

func (r *memReader) Close() error {
	if r.ephemeral {
		r.fabric.mu.Lock()
		delete(r.fabric.channels, r.name)
		r.fabric.mu.Unlock()
	}
	return nil
}
