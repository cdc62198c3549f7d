//go:build unix

package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imgshrink/pkg/contract"
)

// TestMapPathEscapesUnix 非扁平输出目录下拒绝绝对路径与父级逃逸
func TestMapPathEscapesUnix(t *testing.T) {
	flat := false
	w, _ := New(&Options{OutputDir: t.TempDir(), Flat: &flat})
	for _, id := range []string{"/Core/Src/image_data.c", "..", "../image_data.c", "."} {
		if _, err := w.mapPath(contract.SourceID(id)); !errors.Is(err, contract.ErrPathInvalid) {
			t.Fatalf("id %q: want ErrPathInvalid, got %v", id, err)
		}
	}
	got, err := w.mapPath("Core/Src/image_data.c")
	if err != nil || !strings.HasSuffix(got, filepath.Join("Core", "Src", "image_data.c")) {
		t.Fatalf("mapPath = %q, %v", got, err)
	}
}

// TestReplaceKeepsModeUnix 原地原子替换后保留目标的权限位，且目录中只剩目标文件
func TestReplaceKeepsModeUnix(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "image_data.c")
	if err := os.WriteFile(fp, []byte("{ 1, 2, 3, 4 }"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(fp, 0o640); err != nil {
		t.Fatal(err)
	}
	w, _ := New(nil)
	if err := w.Write(context.Background(), contract.SourceID(fp), strings.NewReader("{\n  2\n};\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err := os.Stat(fp)
	if err != nil || st.Mode().Perm() != 0o640 {
		t.Fatalf("mode = %v, %v", st.Mode().Perm(), err)
	}
	noTmpLeft(t, dir)
}
