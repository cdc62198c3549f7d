// Package digitrun 从 C 数组字面量中抽取十进制样本。
//
// 解析规则：
//   - 字面量主体取首个 '{' 与最后一个 '}' 之间的文本；缺任一花括号或顺序颠倒即为 ErrMalformedInput。
//   - 主体内每个最长 ASCII 数字串 [0-9]+ 为一个样本，按出现顺序输出；其余字符均为分隔符。
//   - 负号、十六进制前缀与注释不做识别：'-5' 读作 5，'0x1F' 读作 0 与 1，注释中的数字同样计入。
//   - 同一文件内有多个数组时，中间的 '}' 与 '{' 也落在主体内，样本被合并；
//     由上层的计数校验拒绝，而不是静默截取第一个数组。
//   - 数值溢出 int，或超过 max_sample（非 0 时）即为 ErrMalformedInput。
package digitrun

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"imgshrink/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// MaxSample: 单个样本允许的最大值；0 表示不检查。
	// 例如 unsigned char 数组可设为 255。
	MaxSample int `json:"max_sample,omitempty"`
}

// Parser 从首个 '{' 与最后一个 '}' 之间抽取全部十进制数字串。
// 非数字字符（逗号、空白、换行等）一律视为分隔符。
type Parser struct {
	maxSample int
}

// New 创建 digitrun Parser。
func New(opts *Options) (*Parser, error) {
	p := &Parser{}
	if opts != nil {
		if opts.MaxSample < 0 {
			return nil, fmt.Errorf("%w: max_sample must be >= 0", contract.ErrInvalidInput)
		}
		p.maxSample = opts.MaxSample
	}
	return p, nil
}

var _ contract.Parser = (*Parser)(nil)

// Parse 按包说明的规则返回样本序列；ctx 已取消时直接返回。
func (p *Parser) Parse(ctx context.Context, text string) (contract.Samples, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	body, err := Body(text)
	if err != nil {
		return nil, err
	}
	out := make(contract.Samples, 0, estimate(body))
	err = Runs(body, func(tok string) error {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return fmt.Errorf("%w: sample %d: %v", contract.ErrMalformedInput, len(out), err)
		}
		if p.maxSample > 0 && v > p.maxSample {
			return fmt.Errorf("%w: sample %d = %d exceeds max %d", contract.ErrMalformedInput, len(out), v, p.maxSample)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Body 返回首个 '{' 与最后一个 '}' 之间（不含）的子串。
func Body(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: opening brace not found", contract.ErrMalformedInput)
	}
	end := strings.LastIndexByte(text, '}')
	if end < 0 {
		return "", fmt.Errorf("%w: closing brace not found", contract.ErrMalformedInput)
	}
	if end < start {
		return "", fmt.Errorf("%w: closing brace at %d precedes opening brace at %d", contract.ErrMalformedInput, end, start)
	}
	return text[start+1 : end], nil
}

// Runs 按从左到右的顺序对 s 中每个最长 ASCII 数字串调用 yield。
func Runs(s string, yield func(tok string) error) error {
	i := 0
	for i < len(s) {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if err := yield(s[i:j]); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// estimate: 以逗号数粗估样本数，用于预分配。
func estimate(body string) int { return strings.Count(body, ",") + 1 }
