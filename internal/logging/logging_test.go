package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultsToStderr(t *testing.T) {
	t.Parallel()
	entry, err := New("info", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if entry.Logger.Level.String() != "info" {
		t.Errorf("level = %q, want info", entry.Logger.Level.String())
	}
	if entry.Logger.Out != os.Stderr {
		t.Errorf("output = %v, want os.Stderr", entry.Logger.Out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()
	if _, err := New("not-a-level", ""); err == nil {
		t.Fatal("expected error for unrecognized level")
	}
}

func TestNewWritesToLogFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mcpcored.jsonl")

	entry, err := New("debug", path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	entry.Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain the logged entry")
	}
}

func TestNewRejectsUnwritableLogFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if _, err := New("info", filepath.Join(dir, "missing-dir", "mcpcored.jsonl")); err == nil {
		t.Fatal("expected error opening log file in nonexistent directory")
	}
}
