//go:build !windows

package filesystem

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"imgshrink/pkg/contract"
)

// TestOpenNonRegular 非常规文件报错 (Unix only - uses mkfifo)
func TestOpenNonRegular(t *testing.T) {
	root := t.TempDir()
	fifo := filepath.Join(root, "fifo")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	_, err := New(nil).Open(context.Background(), contract.SourceID(fifo))
	if !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput got %v", err)
	}
}

// TestOpenSymlink 指向常规文件的符号链接可读 (Unix only)
func TestOpenSymlink(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.c")
	os.WriteFile(target, []byte("{1}"), 0o644)
	link := filepath.Join(root, "link.c")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	rc, err := New(nil).Open(context.Background(), contract.SourceID(link))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "{1}" {
		t.Fatalf("unexpected %q", string(b))
	}
}
