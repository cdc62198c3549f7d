package contract

import (
	"errors"
	"fmt"
)

// 最小错误分类（用于上层策略判定与退出码/日志归类）。
var (
	// ErrMalformedInput: 源文本缺少花括号、顺序颠倒或数值无法解析。
	ErrMalformedInput = errors.New("malformed input")
	// ErrDimensionMismatch: 样本数与期望像素数不符（源或目标）。
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidGeometry: 宽/高/倍数不合法（倍数 < 1 或不能整除）。
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidInput: 调用参数非法。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)

// DimensionError 记录哪一阶段的计数校验失败，以及实际值与期望值。
type DimensionError struct {
	Stage string
	Got   int
	Want  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: got %d samples, want %d", ErrDimensionMismatch, e.Stage, e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }
