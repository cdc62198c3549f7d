package carray

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"imgshrink/pkg/contract"
)

// 参考输出格式。
const (
	DefaultInclude     = `#include "image_data.h"`
	DefaultDeclaration = "const unsigned char IMG[IMG_W*IMG_H] = {"
	DefaultFooter      = "};"
	DefaultIndent      = "  "
	DefaultPerLine     = 16
)

// Options: 输出文本的固定片段与换行宽度；空值/0 使用默认。
type Options struct {
	Include     string `json:"include,omitempty"`
	Declaration string `json:"declaration,omitempty"`
	Footer      string `json:"footer,omitempty"`
	Indent      string `json:"indent,omitempty"`
	PerLine     int    `json:"per_line,omitempty"`
}

// Emitter 将样本重建为完整的 C 数组定义文本。
// 输出完全重建，不保留源文件中字面量之外的注释或声明。
type Emitter struct {
	include string
	decl    string
	footer  string
	indent  string
	perLine int
}

// New 创建 carray Emitter。
func New(opts *Options) (*Emitter, error) {
	e := &Emitter{
		include: DefaultInclude,
		decl:    DefaultDeclaration,
		footer:  DefaultFooter,
		indent:  DefaultIndent,
		perLine: DefaultPerLine,
	}
	if opts == nil {
		return e, nil
	}
	if opts.PerLine < 0 {
		return nil, fmt.Errorf("%w: per_line must be >= 0", contract.ErrInvalidInput)
	}
	if opts.PerLine > 0 {
		e.perLine = opts.PerLine
	}
	if s := strings.TrimSpace(opts.Include); s != "" {
		e.include = s
	}
	if s := strings.TrimSpace(opts.Declaration); s != "" {
		e.decl = s
	}
	if s := strings.TrimSpace(opts.Footer); s != "" {
		e.footer = s
	}
	// 缩进允许显式空白；仅空串回退默认
	if opts.Indent != "" {
		e.indent = opts.Indent
	}
	return e, nil
}

var _ contract.Emitter = (*Emitter)(nil)

// Emit 渲染完整输出文本；返回的 Reader 背后为已完整缓冲的字符串。
func (e *Emitter) Emit(ctx context.Context, samples contract.Samples) (io.Reader, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return strings.NewReader(e.Render(samples)), nil
}

// Render 返回完整输出文本。
func (e *Emitter) Render(samples []int) string {
	body := SerializeIndent(samples, e.perLine, e.indent)
	return Assemble(e.Header(), body, e.footer)
}

// Header 返回 include 行、空行与数组声明开头。
func (e *Emitter) Header() string {
	return e.include + "\n\n" + e.decl
}

// Serialize 以默认缩进按每行 perLine 个值渲染字面量主体。
func Serialize(values []int, perLine int) string {
	return SerializeIndent(values, perLine, DefaultIndent)
}

// SerializeIndent 将 values 按每行至多 perLine 个值分组，
// 每行 = indent + ", " 连接的十进制值 + ","；最后一行去掉行尾逗号。
// 行间以 "\n" 连接，无结尾换行；空输入返回空串。perLine <= 0 使用默认 16。
func SerializeIndent(values []int, perLine int, indent string) string {
	if len(values) == 0 {
		return ""
	}
	if perLine <= 0 {
		perLine = DefaultPerLine
	}
	var b strings.Builder
	// 参考数据每值至多 3 位 + ", "
	b.Grow(len(values)*5 + (len(values)/perLine+1)*(len(indent)+2))
	for i := 0; i < len(values); i += perLine {
		end := i + perLine
		if end > len(values) {
			end = len(values)
		}
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString(indent)
		for j := i; j < end; j++ {
			if j > i {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Itoa(values[j]))
		}
	}
	return b.String()
}

// Assemble 拼接 header 行、body 行与 footer 行，以单个换行结尾。
// body 为空时不产生空行。
func Assemble(header, body, footer string) string {
	var b strings.Builder
	b.Grow(len(header) + len(body) + len(footer) + 3)
	b.WriteString(header)
	b.WriteByte('\n')
	if body != "" {
		b.WriteString(body)
		b.WriteByte('\n')
	}
	b.WriteString(footer)
	b.WriteByte('\n')
	return b.String()
}
