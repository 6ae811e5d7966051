package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, []byte("stale content that is longer"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	err := WriteFile(context.Background(), path, func(w io.Writer) error {
		_, err := fmt.Fprint(w, `{"total":1}`)
		return err
	})
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != `{"total":1}` {
		t.Errorf("file content = %q, want truncated report", data)
	}
}

func TestWriteFilePropagatesRenderError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	boom := errors.New("boom")
	err := WriteFile(context.Background(), path, func(io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFile() error = %v, want wrapped boom", err)
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.txt")
	err := WriteFile(context.Background(), path, func(io.Writer) error { return nil })
	if err == nil {
		t.Fatal("WriteFile() error = nil, want error for missing directory")
	}
}
