package loadorder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndReadModlistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"alpha.archive", "beta.archive"}
	if err := WriteModlist(dir, lines); err != nil {
		t.Fatalf("WriteModlist: %v", err)
	}
	got, err := ReadModlist(dir)
	if err != nil {
		t.Fatalf("ReadModlist: %v", err)
	}
	if len(got) != 2 || got[0] != "alpha.archive" || got[1] != "beta.archive" {
		t.Fatalf("got %v", got)
	}
}

func TestWriteModlistDeletesFileWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := WriteModlist(dir, []string{"alpha.archive"}); err != nil {
		t.Fatalf("WriteModlist: %v", err)
	}
	if err := WriteModlist(dir, nil); err != nil {
		t.Fatalf("WriteModlist(nil): %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ModlistFilename)); !os.IsNotExist(err) {
		t.Errorf("expected modlist.txt removed, stat err = %v", err)
	}
}

func TestReadModlistMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	lines, err := ReadModlist(dir)
	if err != nil {
		t.Fatalf("ReadModlist: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %v", lines)
	}
}
