package filesystem

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"imgshrink/pkg/contract"
)

// reducedLiteral 构造 128x128 的 C 数组源文本（每行 16 个样本）。
func reducedLiteral() string {
	const n = 128 * 128
	var b strings.Builder
	b.WriteString("#include \"image_data.h\"\n\nconst unsigned char IMG[IMG_W*IMG_H] = {\n")
	for i := 0; i < n; i++ {
		if i%16 == 0 {
			b.WriteString("  ")
		}
		b.WriteString(strconv.Itoa(i % 256))
		switch {
		case i == n-1:
			b.WriteString("\n")
		case i%16 == 15:
			b.WriteString(",\n")
		default:
			b.WriteString(", ")
		}
	}
	b.WriteString("};\n")
	return b.String()
}

// BenchmarkWrite 写出缩小后的 128x128 字面量：原子替换 vs 截断覆盖写。
func BenchmarkWrite(b *testing.B) {
	text := reducedLiteral()
	for _, atomic := range []bool{true, false} {
		b.Run("atomic="+strconv.FormatBool(atomic), func(b *testing.B) {
			dir := b.TempDir()
			a := atomic
			w, err := New(&Options{OutputDir: dir, Atomic: &a})
			if err != nil {
				b.Fatalf("创建 Writer 失败: %v", err)
			}
			id := contract.SourceID("Core/Src/image_data.c")
			ctx := context.Background()
			b.SetBytes(int64(len(text)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.Write(ctx, id, strings.NewReader(text)); err != nil {
					b.Fatalf("写入失败: %v", err)
				}
			}
		})
	}
}
