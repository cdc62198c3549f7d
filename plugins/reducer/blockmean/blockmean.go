package blockmean

import (
	"context"

	"imgshrink/pkg/contract"
)

// Options: 预留占位，块均值无需配置。
type Options struct{}

type reducer struct{}

// New 创建块均值 Reducer；opts 可为 nil。
func New(opts *Options) (contract.Reducer, error) {
	return &reducer{}, nil
}

var _ contract.Reducer = (*reducer)(nil)

// Reduce 对 Geometry 描述的网格做 factor×factor 不重叠块均值。
func (r *reducer) Reduce(ctx context.Context, samples contract.Samples, g contract.Geometry) (contract.Samples, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	out, err := Reduce(samples, g.Source.Width, g.Source.Height, g.Factor)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reduce 将行优先的 width×height 网格按 factor 缩小：
// 输出 (oy, ox) 为源行 [oy*f, oy*f+f)、源列 [ox*f, ox*f+f) 内样本和对 f*f 的整除（向下取整）。
// 输出同为行优先，长度严格为 (width/factor)*(height/factor)。
func Reduce(samples []int, width, height, factor int) ([]int, error) {
	g := contract.Geometry{Source: contract.Grid{Width: width, Height: height}, Factor: factor}
	if err := contract.ValidateGeometry(g); err != nil {
		return nil, err
	}
	if err := contract.CheckCount("reduce input", len(samples), g.Source.Pixels()); err != nil {
		return nil, err
	}
	tw, th := width/factor, height/factor
	area := factor * factor
	out := make([]int, 0, tw*th)
	for oy := 0; oy < th; oy++ {
		for ox := 0; ox < tw; ox++ {
			sum := 0
			for dy := 0; dy < factor; dy++ {
				row := (oy*factor+dy)*width + ox*factor
				for _, v := range samples[row : row+factor] {
					sum += v
				}
			}
			out = append(out, sum/area)
		}
	}
	if err := contract.CheckOutput("reduce output", len(out), tw*th); err != nil {
		return nil, err
	}
	return out, nil
}
