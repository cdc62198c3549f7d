package contract

import (
	"context"
	"io"
)

// Writer: 将输出文本持久化到目标介质（文件系统/STDOUT）。
// 约束：
//  1. 同一 SourceID 单写者；
//  2. 按字节透传，不读取/修改业务内容；
//  3. ctx 取消/超时需尽快返回；
//  4. 错误直接上抛（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, id SourceID, r io.Reader) error
}
