package contract

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// TestNormalizeSourceID 验证路径规范化逻辑。
func TestNormalizeSourceID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"本地分隔符", filepath.Join("Core", "Src", "image_data.c"), "Core/Src/image_data.c"},
		{"Windows路径", "C:\\fw\\Core\\Src\\image_data.c", "C:/fw/Core/Src/image_data.c"},
		{"清理多余斜杠", "Core//Src///image_data.c", "Core/Src/image_data.c"},
		{"处理父目录", "Core/Inc/../Src/image_data.c", "Core/Src/image_data.c"},
		{"混合分隔符", "Core\\Src/./image_data.c", "Core/Src/image_data.c"},
		{"STDIN", "-", "-"},
		{"STDIN 带空白", " - ", "-"},
		{"空串", "", "."},
		{"Unix绝对路径", "/home/u/../fw/image_data.c", "/home/fw/image_data.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSourceID(tt.input)
			if string(got) != tt.expected {
				t.Errorf("NormalizeSourceID(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGeometryTarget(t *testing.T) {
	g := Geometry{Source: Grid{Width: 512, Height: 512}, Factor: 4}
	if got := g.Target(); got != (Grid{Width: 128, Height: 128}) {
		t.Fatalf("target %+v", got)
	}
	if got := g.Target().Pixels(); got != 128*128 {
		t.Fatalf("pixels %d", got)
	}
	if got := (Geometry{Source: Grid{Width: 8, Height: 8}}).Target(); got != (Grid{}) {
		t.Fatalf("factor 0 应返回零值, got %+v", got)
	}
}

// TestValidateGeometry 覆盖合法与各类非法组合。
func TestValidateGeometry(t *testing.T) {
	cases := []struct {
		name string
		g    Geometry
		ok   bool
	}{
		{"reference", Geometry{Source: Grid{512, 512}, Factor: 4}, true},
		{"identity", Geometry{Source: Grid{3, 5}, Factor: 1}, true},
		{"non square", Geometry{Source: Grid{8, 4}, Factor: 2}, true},
		{"zero factor", Geometry{Source: Grid{8, 8}, Factor: 0}, false},
		{"negative factor", Geometry{Source: Grid{8, 8}, Factor: -2}, false},
		{"width remainder", Geometry{Source: Grid{10, 8}, Factor: 4}, false},
		{"height remainder", Geometry{Source: Grid{8, 10}, Factor: 4}, false},
		{"zero width", Geometry{Source: Grid{0, 8}, Factor: 1}, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.g)
			if tt.ok && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("want ErrInvalidGeometry got %v", err)
			}
		})
	}
}

// TestCheckCount 校验失败时返回带阶段与数值的 DimensionError。
func TestCheckCount(t *testing.T) {
	if err := CheckCount("parse", 16, 16); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := CheckCount("parse", 100, 512*512)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch got %v", err)
	}
	var de *DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("want *DimensionError got %T", err)
	}
	if de.Stage != "parse" || de.Got != 100 || de.Want != 262144 {
		t.Fatalf("字段不正确: %+v", de)
	}
	msg := err.Error()
	if !strings.Contains(msg, "100") || !strings.Contains(msg, "262144") || !strings.Contains(msg, "parse") {
		t.Fatalf("错误信息应包含阶段、实际值与期望值: %s", msg)
	}
}

// TestCheckOutput 阶段产出违例同时归为不变量违例与计数不符。
func TestCheckOutput(t *testing.T) {
	if err := CheckOutput("reduce", 4, 4); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := CheckOutput("reduce", 1, 4)
	if !errors.Is(err, ErrInvariantViolation) || !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want invariant+dimension got %v", err)
	}
	var de *DimensionError
	if !errors.As(err, &de) || de.Stage != "reduce" || de.Got != 1 || de.Want != 4 {
		t.Fatalf("字段不正确: %v", err)
	}
}
