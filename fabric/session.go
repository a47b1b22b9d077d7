package fabric

import (
	"errors"
	"fmt"
	"io"

	"github.com/achilleasa/lightbake/types"
)

type openChannel struct {
	handle  int
	channel Channel
	mode    Mode
}

// A Session tracks the channels opened by a single goroutine as a stack.
// Reads and writes address the innermost open channel. Sessions are not
// safe for concurrent use; each worker goroutine owns one.
type Session struct {
	fabric     Fabric
	stack      []openChannel
	nextHandle int

	// Byte counters for statistics.
	BytesRead    int64
	BytesWritten int64
}

// Create a new session on top of a fabric backend.
func NewSession(fabric Fabric) *Session {
	return &Session{
		fabric:     fabric,
		nextHandle: 1,
	}
}

// Open a channel and push it on the channel stack. The returned handle is
// positive; on failure the error is a *Error carrying a negative code.
func (s *Session) OpenChannel(name string, flags ChannelFlags, mode Mode) (int, error) {
	if name == "" {
		return int(CodeInvalidArgument), newError(CodeInvalidArgument, name, ErrEmptyName)
	}
	if flags&Persistent != 0 && flags&Ephemeral != 0 {
		return int(CodeInvalidArgument), newError(CodeInvalidArgument, name, ErrInvalidFlags)
	}

	ch, err := s.fabric.Open(name, flags, mode)
	if err != nil {
		var fabricErr *Error
		if errors.As(err, &fabricErr) {
			return int(fabricErr.Code), err
		}
		return int(CodeChannelIO), newError(CodeChannelIO, name, err)
	}

	handle := s.nextHandle
	s.nextHandle++
	s.stack = append(s.stack, openChannel{handle: handle, channel: ch, mode: mode})
	return handle, nil
}

// Open the channel for a kind and guid using the kind's flags.
func (s *Session) OpenKind(kind Kind, guid types.Guid, mode Mode) (int, error) {
	return s.OpenChannel(ChannelName(kind, guid), kind.Flags(), mode)
}

// Read exactly len(p) bytes from the current channel.
func (s *Session) Read(p []byte) (int, error) {
	cur, err := s.current()
	if err != nil {
		return 0, err
	}
	if cur.mode != ModeRead {
		return 0, newError(CodeInvalidArgument, cur.channel.Name(), fmt.Errorf("channel is open for %s", cur.mode))
	}

	n, err := io.ReadFull(cur.channel, p)
	s.BytesRead += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, newError(CodeChannelIO, cur.channel.Name(), fmt.Errorf("%w: %v", ErrShortRead, err))
		}
		return n, newError(CodeChannelIO, cur.channel.Name(), err)
	}
	return n, nil
}

// Write p to the current channel.
func (s *Session) Write(p []byte) (int, error) {
	cur, err := s.current()
	if err != nil {
		return 0, err
	}
	if cur.mode != ModeWrite {
		return 0, newError(CodeInvalidArgument, cur.channel.Name(), fmt.Errorf("channel is open for %s", cur.mode))
	}

	n, err := cur.channel.Write(p)
	s.BytesWritten += int64(n)
	if err != nil {
		return n, newError(CodeChannelIO, cur.channel.Name(), err)
	}
	if n != len(p) {
		return n, newError(CodeChannelIO, cur.channel.Name(), ErrShortWrite)
	}
	return n, nil
}

// Flush and close the innermost channel.
func (s *Session) CloseCurrentChannel() error {
	cur, err := s.current()
	if err != nil {
		return err
	}
	s.stack = s.stack[:len(s.stack)-1]

	if err = cur.channel.Close(); err != nil {
		return newError(CodeChannelIO, cur.channel.Name(), err)
	}
	return nil
}

// Release the innermost channel without publishing the data written to it.
func (s *Session) AbortCurrentChannel() error {
	cur, err := s.current()
	if err != nil {
		return err
	}
	s.stack = s.stack[:len(s.stack)-1]

	if err = cur.channel.Abort(); err != nil {
		return newError(CodeChannelIO, cur.channel.Name(), err)
	}
	return nil
}

// Close every channel that is still open, innermost first. Returns the
// first error encountered.
func (s *Session) Close() error {
	var firstErr error
	for len(s.stack) > 0 {
		if err := s.CloseCurrentChannel(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// The number of channels currently open.
func (s *Session) Depth() int {
	return len(s.stack)
}

// The name of the innermost channel or an empty string.
func (s *Session) CurrentChannel() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1].channel.Name()
}

// Send a side band text message.
func (s *Session) SendTextMessage(format string, args ...interface{}) {
	s.fabric.Post(Message{Type: TextMessage, Text: fmt.Sprintf(format, args...)})
}

// Send a progress update.
func (s *Session) SendProgress(percent int) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	s.fabric.Post(Message{Type: ProgressMessage, Progress: percent})
}

func (s *Session) current() (openChannel, error) {
	if len(s.stack) == 0 {
		return openChannel{}, newError(CodeNoChannel, "", ErrNoChannel)
	}
	return s.stack[len(s.stack)-1], nil
}
