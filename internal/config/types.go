package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input: 待改写的 C 源文件；"-" 表示 STDIN。
	Input string `json:"input"`
	// Output: 写回目标；空则原地写回 Input。
	Output   string   `json:"output"`
	Geometry Geometry `json:"geometry"`
	Logging  Logging  `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Geometry: 源网格与缩减因子。
type Geometry struct {
	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`
	Factor       int `json:"factor"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader  string `json:"reader"`
	Parser  string `json:"parser"`
	Reducer string `json:"reducer"`
	Emitter string `json:"emitter"`
	Writer  string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader  json.RawMessage `json:"reader"`
	Parser  json.RawMessage `json:"parser"`
	Reducer json.RawMessage `json:"reducer"`
	Emitter json.RawMessage `json:"emitter"`
	Writer  json.RawMessage `json:"writer"`
}
