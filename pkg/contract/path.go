package contract

import (
	"path"
	"strings"
)

// NormalizeSourceID 规范化路径，统一为跨平台稳定的 SourceID。
// 规则：
// - 使用正斜杠分隔符
// - 清理多余分隔符与路径片段（.、..）
// - 保留相对/绝对语义，不做隐式绝对化
// - "-"（STDIN/STDOUT）原样保留
func NormalizeSourceID(p string) SourceID {
	p = strings.TrimSpace(p)
	if p == "-" {
		return SourceID(p)
	}
	s := strings.ReplaceAll(p, "\\", "/")
	return SourceID(path.Clean(s))
}
