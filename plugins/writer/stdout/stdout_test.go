package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWriteCopies(t *testing.T) {
	w, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	w.w = &buf
	if err := w.Write(context.Background(), "ignored.c", strings.NewReader("const x = {1};\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "const x = {1};\n" {
		t.Fatalf("unexpected %q", buf.String())
	}
}

func TestWriteCanceled(t *testing.T) {
	w, _ := New(nil)
	var buf bytes.Buffer
	w.w = &buf
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, "x", strings.NewReader("data")); err == nil {
		t.Fatalf("expect ctx error")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestNewTo(t *testing.T) {
	var buf bytes.Buffer
	w := NewTo(&buf)
	if err := w.Write(context.Background(), "-", strings.NewReader("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "x" {
		t.Fatalf("unexpected %q", buf.String())
	}
	if NewTo(nil).w == nil {
		t.Fatal("nil writer should fall back to stdout")
	}
}
