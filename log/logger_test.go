package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	type spec struct {
		name string
		exp  Level
	}
	specs := []spec{
		{"debug", Debug},
		{"INFO", Info},
		{"notice", Notice},
		{"warn", Warning},
		{"error", Error},
	}
	for index, s := range specs {
		level, err := ParseLevel(s.name)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if level != s.exp {
			t.Fatalf("[spec %d] expected level %d; got %d", index, s.exp, level)
		}
	}

	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestModuleLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer func() {
		SetSink(os.Stdout)
		SetLevel(Notice)
	}()

	SetLevel(Warning)
	SetModuleLevel("chatty module", Debug)

	New("quiet module").Info("hidden")
	New("chatty module").Debug("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info message of quiet module to be filtered; got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("expected debug message of chatty module to be logged; got %q", out)
	}
}
