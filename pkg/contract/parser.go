package contract

import "context"

// Parser: 从源文本中抽取有序整数样本。
// 约束：
//  1. 纯计算，不做 I/O；
//  2. 保持出现顺序；
//  3. 不校验样本数（由调用方按 Geometry 校验）。
type Parser interface {
	Parse(ctx context.Context, text string) (Samples, error)
}
