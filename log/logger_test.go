package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Notice)
	logger.Debug("debug-msg")
	logger.Notice("notice-msg")
	out := buf.String()
	if strings.Contains(out, "debug-msg") {
		t.Fatalf("expected debug message to be filtered at Notice level; got %q", out)
	}
	if !strings.Contains(out, "notice-msg") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected notice message tagged with module name; got %q", out)
	}

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("value %d", 42)
	if !strings.Contains(buf.String(), "value 42") {
		t.Fatalf("expected debug message at Debug level; got %q", buf.String())
	}
}

func TestModuleLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	SetLevel(Notice)
	SetModuleLevel("verbose", Debug)

	New("verbose").Debug("verbose-debug")
	New("quiet").Debug("quiet-debug")

	out := buf.String()
	if !strings.Contains(out, "verbose-debug") {
		t.Fatalf("expected debug message from module with a Debug override; got %q", out)
	}
	if strings.Contains(out, "quiet-debug") {
		t.Fatalf("expected debug message from other modules to be filtered; got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	type spec struct {
		in     string
		exp    Level
		expErr bool
	}
	specs := []spec{
		{"debug", Debug, false},
		{"INFO", Info, false},
		{"notice", Notice, false},
		{"warn", Warning, false},
		{"error", Error, false},
		{"trace", Notice, true},
	}
	for index, s := range specs {
		got, err := ParseLevel(s.in)
		if s.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error for %q", index, s.in)
			}
			continue
		}
		if err != nil || got != s.exp {
			t.Fatalf("[spec %d] expected level %d; got %d (err %v)", index, s.exp, got, err)
		}
	}
}
