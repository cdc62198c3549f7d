package contract

import "context"

// Reducer: 将行优先网格按 Geometry 缩小。
// 约束：
//  1. len(samples) 必须等于 Source.Pixels()，否则返回 *DimensionError；
//  2. 输出仍为行优先，长度严格等于 Target().Pixels()；
//  3. 纯计算，不修改输入。
type Reducer interface {
	Reduce(ctx context.Context, samples Samples, g Geometry) (Samples, error)
}
