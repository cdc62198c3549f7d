package contract

import "fmt"

// 校验库函数（纯函数，无 I/O）：
// - ValidateGeometry: 宽高为正、Factor >= 1 且整除宽高
// - CheckCount:       样本数必须与期望值严格相等（不推断）
// - CheckOutput:      阶段输出长度的后置条件；违例同时属于不变量违例与计数不符

// ValidateGeometry 校验网格与缩小倍数。
func ValidateGeometry(g Geometry) error {
	if g.Source.Width <= 0 || g.Source.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d must be positive", ErrInvalidGeometry, g.Source.Width, g.Source.Height)
	}
	if g.Factor < 1 {
		return fmt.Errorf("%w: factor %d must be >= 1", ErrInvalidGeometry, g.Factor)
	}
	if g.Source.Width%g.Factor != 0 || g.Source.Height%g.Factor != 0 {
		return fmt.Errorf("%w: factor %d does not divide %dx%d", ErrInvalidGeometry, g.Factor, g.Source.Width, g.Source.Height)
	}
	return nil
}

// CheckCount 在 got != want 时返回 *DimensionError。
func CheckCount(stage string, got, want int) error {
	if got != want {
		return &DimensionError{Stage: stage, Got: got, Want: want}
	}
	return nil
}

// CheckOutput 校验阶段产出的样本数；不等时返回同时包装
// ErrInvariantViolation 与 *DimensionError 的错误。
func CheckOutput(stage string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, &DimensionError{Stage: stage, Got: got, Want: want})
	}
	return nil
}
