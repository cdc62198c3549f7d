package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imgshrink/pkg/contract"
)

func noTmpLeft(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("tmp file not cleaned: %s", e.Name())
		}
	}
}

// TestWriteInPlaceAtomic 默认：原地原子替换
func TestWriteInPlaceAtomic(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "image_data.c")
	os.WriteFile(fp, []byte("old content"), 0o600)
	w, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Write(context.Background(), contract.SourceID(fp), bytes.NewBufferString("new")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(fp)
	if err != nil || string(b) != "new" {
		t.Fatalf("unexpected file %v %q", err, string(b))
	}
	noTmpLeft(t, dir)
	st, _ := os.Stat(fp)
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("应沿用原文件权限, got %v", st.Mode().Perm())
	}
}

// TestWriteAtomic 输出目录 + 原子写入
func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	a := true
	w, err := New(&Options{OutputDir: dir, Atomic: &a})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = w.Write(context.Background(), "Core/Src/out.c", bytes.NewBufferString("data"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "out.c"))
	if err != nil || string(b) != "data" {
		t.Fatalf("unexpected file %v %q", err, string(b))
	}
	noTmpLeft(t, dir)
}

// 当目标已存在时，Atomic 写应替换为新内容（跨平台）。
func TestWriteAtomicReplaceExisting(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Write(context.Background(), "out.c", bytes.NewBufferString("v1")); err != nil {
		t.Fatalf("write v1: %v", err)
	}
	if err := w.Write(context.Background(), "out.c", bytes.NewBufferString("v2")); err != nil {
		t.Fatalf("write v2: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "out.c"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "v2" {
		t.Fatalf("expect replaced content v2, got %q", string(b))
	}
	noTmpLeft(t, dir)
}

// TestWritePathInvalid 路径越界
func TestWritePathInvalid(t *testing.T) {
	dir := t.TempDir()
	flat := false
	w, _ := New(&Options{OutputDir: dir, Flat: &flat})
	err := w.Write(context.Background(), "../bad", bytes.NewBufferString("x"))
	if !errors.Is(err, contract.ErrPathInvalid) {
		t.Fatalf("expect path invalid, got %v", err)
	}
	inPlace, _ := New(nil)
	for _, id := range []string{"", "-", ".", "  "} {
		if err := inPlace.Write(context.Background(), contract.SourceID(id), bytes.NewBufferString("x")); !errors.Is(err, contract.ErrPathInvalid) {
			t.Fatalf("id %q expect path invalid, got %v", id, err)
		}
	}
}

// TestWriteNonAtomic 非原子写入
func TestWriteNonAtomic(t *testing.T) {
	dir := t.TempDir()
	flat := false
	atomic := false
	w, _ := New(&Options{OutputDir: dir, Flat: &flat, Atomic: &atomic})
	err := w.Write(context.Background(), "sub/out.c", bytes.NewBufferString("v"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "sub", "out.c"))
	if err != nil || string(b) != "v" {
		t.Fatalf("file not created: %v %q", err, string(b))
	}
}

// TestTarget 回显实际落盘路径
func TestTarget(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir})
	got, err := w.Target("Core/Src/image_data.c")
	if err != nil || got != filepath.Join(dir, "image_data.c") {
		t.Fatalf("target %q %v", got, err)
	}
	inPlace, _ := New(nil)
	got, err = inPlace.Target("Core/Src/image_data.c")
	if err != nil || got != filepath.Join("Core", "Src", "image_data.c") {
		t.Fatalf("in-place target %q %v", got, err)
	}
}

// TestWriteCtxCancel 上下文取消
func TestWriteCtxCancel(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir})
	r := strings.NewReader("data")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, "a.c", r); err == nil {
		t.Fatalf("expect ctx error")
	}
}

// TestNewInvalid 输出目录为纯空白
func TestNewInvalid(t *testing.T) {
	if _, err := New(&Options{OutputDir: "   "}); err == nil {
		t.Fatalf("expect error for blank output dir")
	}
	if _, err := New(&Options{}); err != nil {
		t.Fatalf("empty output dir means in-place: %v", err)
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errors.New("boom") }

// TestWriteAtomicCopyError 原子写入时拷贝失败：不残留临时文件，原文件不变
func TestWriteAtomicCopyError(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "image_data.c")
	os.WriteFile(fp, []byte("keep"), 0o644)
	w, _ := New(nil)
	err := w.Write(context.Background(), contract.SourceID(fp), errReader{})
	if err == nil {
		t.Fatalf("expect copy error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left %v", entries)
	}
	b, _ := os.ReadFile(fp)
	if string(b) != "keep" {
		t.Fatalf("original should be untouched, got %q", string(b))
	}
}

// TestReaderWithCtxCancel reader 在读取前取消
func TestReaderWithCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := readerWithCtx(ctx, strings.NewReader("data"))
	cancel()
	buf := make([]byte, 1)
	if _, err := r.Read(buf); err == nil {
		t.Fatalf("expect ctx error")
	}
}

// closeErrWriter 写入成功但关闭失败（模拟最终落盘失败）。
type closeErrWriter struct {
	bytes.Buffer
	closed int
}

func (c *closeErrWriter) Close() error {
	c.closed++
	return errors.New("close failed")
}

// TestCopyCloseReportsCloseError 覆盖写：拷贝与刷新成功时 Close 错误必须上报
func TestCopyCloseReportsCloseError(t *testing.T) {
	w, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dst := &closeErrWriter{}
	err = w.copyClose(context.Background(), dst, strings.NewReader("{\n  1, 2\n};\n"))
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Fatalf("want close error, got %v", err)
	}
	if dst.closed != 1 || dst.String() != "{\n  1, 2\n};\n" {
		t.Fatalf("unexpected state closed=%d data=%q", dst.closed, dst.String())
	}

	// 拷贝失败时返回拷贝错误，仍只关闭一次
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst = &closeErrWriter{}
	err = w.copyClose(ctx, dst, strings.NewReader("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
	if dst.closed != 1 {
		t.Fatalf("closed=%d", dst.closed)
	}
}
