package contract

import (
	"context"
	"io"
)

// Emitter: 将样本序列渲染为完整的输出文本（声明头 + 字面量 + 结尾）。
// 约束：
//  1. 输出在返回前已完整缓冲，Writer 只负责落盘；
//  2. 不保留源文本中字面量以外的任何内容。
type Emitter interface {
	Emit(ctx context.Context, samples Samples) (io.Reader, error)
}
