package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（文件或 STDIN）。
// 约束：
// 1) 仅提供字节流，不做解析；
// 2) 调用方负责 Close；
// 3) 不在内部起并发。
type Reader interface {
	Open(ctx context.Context, id SourceID) (io.ReadCloser, error)
}
