package contract

// SourceID: 逻辑源标识（通常为路径，需规范化，跨平台一致）。
// "-" 表示 STDIN/STDOUT。
type SourceID string

// Samples: 按行优先（index = y*width + x）排列的像素亮度序列。
type Samples []int

// Grid: 像素网格尺寸。
type Grid struct {
	Width  int
	Height int
}

// Pixels 返回网格像素总数。
func (g Grid) Pixels() int { return g.Width * g.Height }

// Geometry: 源网格与缩小倍数（块边长）。
// 约束：Factor >= 1，且整除 Width 与 Height。违例属于配置错误。
type Geometry struct {
	Source Grid
	Factor int
}

// Target 返回缩小后的网格尺寸；调用方应先通过 ValidateGeometry。
func (g Geometry) Target() Grid {
	if g.Factor <= 0 {
		return Grid{}
	}
	return Grid{Width: g.Source.Width / g.Factor, Height: g.Source.Height / g.Factor}
}
