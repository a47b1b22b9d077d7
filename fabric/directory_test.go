package fabric

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDirectoryPublishOnClose(t *testing.T) {
	root := t.TempDir()
	dir, err := NewDirectory(root, func(Message) {})
	if err != nil {
		t.Fatal(err)
	}

	s := NewSession(dir)
	if _, err = s.OpenChannel("result.tmap", Persistent, ModeWrite); err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte("lightmap"), 100)
	if _, err = s.Write(payload); err != nil {
		t.Fatal(err)
	}

	if _, err = os.Stat(filepath.Join(root, "result.tmap")); !os.IsNotExist(err) {
		t.Fatalf("expected channel file to be absent before close; got %v", err)
	}

	// A second writer for the same channel must be rejected
	if _, err = NewSession(dir).OpenChannel("result.tmap", Persistent, ModeWrite); Code(err) != CodeAlreadyExists {
		t.Fatalf("expected CodeAlreadyExists; got %v", err)
	}

	if err = s.CloseCurrentChannel(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "result.tmap"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatal("expected uncompressed channel file to hold the raw payload")
	}

	names, err := dir.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "result.tmap" {
		t.Fatalf("expected a single published channel; got %v", names)
	}
}

func TestDirectoryCompressibleChannel(t *testing.T) {
	root := t.TempDir()
	dir, err := NewDirectory(root, nil)
	if err != nil {
		t.Fatal(err)
	}

	payload := bytes.Repeat([]byte{0, 1, 2, 3}, 4096)
	s := NewSession(dir)
	s.OpenChannel("scene", Persistent|Compressible, ModeWrite)
	s.Write(payload)
	if err = s.CloseCurrentChannel(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(root, "scene"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(payload)) {
		t.Fatalf("expected stored channel to be smaller than %d bytes; got %d", len(payload), info.Size())
	}

	if _, err = s.OpenChannel("scene", Persistent|Compressible, ModeRead); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, len(payload))
	if _, err = s.Read(out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatal("expected decompressed channel to match payload")
	}
	s.CloseCurrentChannel()
}

func TestDirectoryMissingAndEphemeral(t *testing.T) {
	root := t.TempDir()
	dir, _ := NewDirectory(root, nil)
	s := NewSession(dir)

	if _, err := s.OpenChannel("nope", Persistent, ModeRead); Code(err) != CodeChannelNotFound {
		t.Fatalf("expected CodeChannelNotFound; got %v", err)
	}

	s.OpenChannel("dbg", Ephemeral, ModeWrite)
	s.Write([]byte{1, 2})
	s.CloseCurrentChannel()

	s.OpenChannel("dbg", Ephemeral, ModeRead)
	if err := s.CloseCurrentChannel(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "dbg")); !os.IsNotExist(err) {
		t.Fatalf("expected ephemeral channel to be deleted after read; got %v", err)
	}
}

func TestDirectoryAbortDiscardsChannel(t *testing.T) {
	root := t.TempDir()
	dir, _ := NewDirectory(root, nil)
	s := NewSession(dir)

	for _, flags := range []ChannelFlags{Persistent, Persistent | Compressible} {
		if _, err := s.OpenChannel("batch.vmap", flags, ModeWrite); err != nil {
			t.Fatal(err)
		}
		s.Write(bytes.Repeat([]byte{7}, 512))
		if err := s.AbortCurrentChannel(); err != nil {
			t.Fatal(err)
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected aborted channel to leave no files behind (%s); got %d", flags, len(entries))
		}
	}

	// The name is released so the channel can be written again
	s.OpenChannel("batch.vmap", Persistent, ModeWrite)
	s.Write([]byte{1})
	if err := s.CloseCurrentChannel(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "batch.vmap")); err != nil {
		t.Fatalf("expected channel to be published after rewrite; got %v", err)
	}
}
