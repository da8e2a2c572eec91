package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alugueis/internal/store"
	"alugueis/internal/store/storetest"
)

func TestStore(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	storetest.Run(t, s)
}

func TestNestedKeysAndNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := s.WriteTable(ctx, "2025-03-15/relatorio_alugueis.pdf", []byte("%PDF-")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "2025-03-15", "relatorio_alugueis.pdf"))
	if err != nil || string(got) != "%PDF-" {
		t.Fatalf("unexpected content %q (err=%v)", got, err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "2025-03-15"))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"../x.csv", "/etc/passwd", "a/../../b", "", "a//b"} {
		if err := s.WriteTable(context.Background(), key, []byte("x")); !errors.Is(err, store.ErrInvalidTableID) {
			t.Fatalf("%q: expected ErrInvalidTableID, got %v", key, err)
		}
	}
}

func TestFailedWriteKeepsPreviousContent(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := s.WriteTable(ctx, "t.csv", []byte("old")); err != nil {
		t.Fatalf("write: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteTable(cancelled, "t.csv", []byte("new")); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	data, err := s.ReadTable(ctx, "t.csv")
	if err != nil || string(data) != "old" {
		t.Fatalf("expected old content, got %q (err=%v)", data, err)
	}
}
