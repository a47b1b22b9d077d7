package fabric

import (
	"errors"
	"testing"
)

func TestSessionChannelStack(t *testing.T) {
	mem := NewMemory()
	mem.Put("outer", []byte{1, 2, 3, 4})

	s := NewSession(mem)
	h1, err := s.OpenChannel("outer", Persistent, ModeRead)
	if err != nil || h1 <= 0 {
		t.Fatalf("expected a positive handle; got %d (%v)", h1, err)
	}
	h2, err := s.OpenChannel("inner", Persistent, ModeWrite)
	if err != nil || h2 <= h1 {
		t.Fatalf("expected a handle larger than %d; got %d (%v)", h1, h2, err)
	}

	// Writes address the innermost channel
	if _, err = s.Write([]byte{9, 9}); err != nil {
		t.Fatal(err)
	}
	if s.CurrentChannel() != "inner" {
		t.Fatalf("expected current channel to be inner; got %q", s.CurrentChannel())
	}
	if _, exists := mem.Get("inner"); exists {
		t.Fatal("expected inner channel to stay unpublished until closed")
	}
	if err = s.CloseCurrentChannel(); err != nil {
		t.Fatal(err)
	}
	if data, _ := mem.Get("inner"); len(data) != 2 {
		t.Fatalf("expected inner channel to contain 2 bytes; got %d", len(data))
	}

	// Back to the outer channel
	buf := make([]byte, 3)
	if _, err = s.Read(buf); err != nil {
		t.Fatal(err)
	}
	if buf[2] != 3 {
		t.Fatalf("expected to read 1 2 3; got %v", buf)
	}

	// Only one byte left; the read must fail as a whole
	_, err = s.Read(buf)
	if !errors.Is(err, ErrShortRead) || Code(err) != CodeChannelIO {
		t.Fatalf("expected a short read error with code %d; got %v", CodeChannelIO, err)
	}

	if err = s.CloseCurrentChannel(); err != nil {
		t.Fatal(err)
	}
	if s.Depth() != 0 {
		t.Fatalf("expected empty channel stack; got depth %d", s.Depth())
	}
}

func TestSessionErrors(t *testing.T) {
	s := NewSession(NewMemory())

	type spec struct {
		name    string
		flags   ChannelFlags
		mode    Mode
		expCode int32
	}
	specs := []spec{
		{"", Persistent, ModeWrite, CodeInvalidArgument},
		{"both", Persistent | Ephemeral, ModeWrite, CodeInvalidArgument},
		{"missing", Persistent, ModeRead, CodeChannelNotFound},
	}
	for index, sp := range specs {
		handle, err := s.OpenChannel(sp.name, sp.flags, sp.mode)
		if Code(err) != sp.expCode || handle != int(sp.expCode) {
			t.Fatalf("[spec %d] expected code %d; got handle %d and error %v", index, sp.expCode, handle, err)
		}
	}

	if _, err := s.Write([]byte{1}); Code(err) != CodeNoChannel {
		t.Fatalf("expected CodeNoChannel when writing without a channel; got %v", err)
	}
	if err := s.CloseCurrentChannel(); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel; got %v", err)
	}

	// A channel open for reading rejects writes
	s.OpenChannel("w", Persistent, ModeWrite)
	s.CloseCurrentChannel()
	s.OpenChannel("w", Persistent, ModeRead)
	if _, err := s.Write([]byte{1}); Code(err) != CodeInvalidArgument {
		t.Fatalf("expected CodeInvalidArgument; got %v", err)
	}
	s.Close()
}

func TestSessionMessages(t *testing.T) {
	mem := NewMemory()
	s := NewSession(mem)
	s.SendTextMessage("mapping %d failed", 7)
	s.SendProgress(150)

	msgs := mem.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages; got %d", len(msgs))
	}
	if msgs[0].Type != TextMessage || msgs[0].Text != "mapping 7 failed" {
		t.Fatalf("unexpected text message %+v", msgs[0])
	}
	if msgs[1].Type != ProgressMessage || msgs[1].Progress != 100 {
		t.Fatalf("expected progress to be clamped to 100; got %+v", msgs[1])
	}
}

func TestEphemeralChannelRemovedAfterRead(t *testing.T) {
	mem := NewMemory()
	s := NewSession(mem)
	s.OpenChannel("debug", Ephemeral, ModeWrite)
	s.Write([]byte{1})
	s.CloseCurrentChannel()

	s.OpenChannel("debug", Ephemeral, ModeRead)
	s.CloseCurrentChannel()
	if _, exists := mem.Get("debug"); exists {
		t.Fatal("expected ephemeral channel to be removed after reading")
	}
}

func TestSessionAbortCurrentChannel(t *testing.T) {
	mem := NewMemory()
	mem.Put("dbg", []byte{1})
	s := NewSession(mem)

	if err := s.AbortCurrentChannel(); Code(err) != CodeNoChannel {
		t.Fatalf("expected CodeNoChannel; got %v", err)
	}

	s.OpenChannel("out", Persistent, ModeWrite)
	s.Write([]byte{1, 2, 3})
	if err := s.AbortCurrentChannel(); err != nil {
		t.Fatal(err)
	}
	if _, exists := mem.Get("out"); exists {
		t.Fatal("expected aborted channel to stay unpublished")
	}
	if s.Depth() != 0 {
		t.Fatalf("expected empty channel stack; got depth %d", s.Depth())
	}
	if _, err := s.OpenChannel("out", Persistent, ModeWrite); err != nil {
		t.Fatalf("expected channel name to be released after abort; got %v", err)
	}
	s.CloseCurrentChannel()

	// Aborting a read keeps ephemeral channels around
	s.OpenChannel("dbg", Ephemeral, ModeRead)
	s.AbortCurrentChannel()
	if _, exists := mem.Get("dbg"); !exists {
		t.Fatal("expected ephemeral channel to survive an aborted read")
	}
}
