package stdout

import (
	"context"
	"io"
	"os"

	"imgshrink/pkg/contract"
)

// Options: 预留占位，stdout 写出无需配置。
type Options struct{}

// Writer 将输出文本写到标准输出（dry-run），不触碰目标文件。
type Writer struct {
	w io.Writer
}

// New 创建写往标准输出的 Writer；opts 可为 nil。
func New(opts *Options) (*Writer, error) {
	return &Writer{w: os.Stdout}, nil
}

// NewTo 创建写往 w 的 Writer（w 为 nil 时使用标准输出）。
func NewTo(w io.Writer) *Writer {
	if w == nil {
		w = os.Stdout
	}
	return &Writer{w: w}
}

var _ contract.Writer = (*Writer)(nil)

// Write 忽略 id，将 r 原样拷贝到标准输出。
func (s *Writer) Write(ctx context.Context, id contract.SourceID, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := io.Copy(s.w, r)
	return err
}
