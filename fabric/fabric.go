// Package fabric provides named, FIFO-ordered byte channels plus a side band
// for text and progress messages. Channel names are the only rendezvous point
// between the editor and the workers.
package fabric

import (
	"fmt"
	"io"
)

// Flags that control how a channel is stored.
type ChannelFlags uint8

const (
	// Channel outlives the job.
	Persistent ChannelFlags = 1 << iota

	// Channel is removed once it has been read.
	Ephemeral

	// Channel contents may be compressed by the backend.
	Compressible
)

func (f ChannelFlags) String() string {
	out := ""
	for _, entry := range []struct {
		flag ChannelFlags
		name string
	}{{Persistent, "persistent"}, {Ephemeral, "ephemeral"}, {Compressible, "compressible"}} {
		if f&entry.flag == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += entry.name
	}
	if out == "" {
		return "none"
	}
	return out
}

// The direction a channel is opened in.
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// A Channel is an open byte stream. Data written to a channel becomes
// visible to readers only after the channel is closed.
type Channel interface {
	io.Reader
	io.Writer

	// Flush any buffered data and release the channel.
	Close() error

	// Release the channel without publishing anything written to it.
	// Readers behave as on Close but ephemeral channels are kept.
	Abort() error

	// The channel name.
	Name() string
}

type MessageType uint8

const (
	TextMessage MessageType = iota
	ProgressMessage
)

// A side band message.
type Message struct {
	Type MessageType

	// Text payload for text messages.
	Text string

	// Percent complete for progress messages.
	Progress int
}

func (m Message) String() string {
	if m.Type == ProgressMessage {
		return fmt.Sprintf("progress: %d%%", m.Progress)
	}
	return m.Text
}

// The Fabric interface is implemented by all channel backends.
type Fabric interface {
	// Open a named channel.
	Open(name string, flags ChannelFlags, mode Mode) (Channel, error)

	// Post a side band message. Implementations must not block.
	Post(Message)
}
