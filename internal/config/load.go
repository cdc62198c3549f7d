package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix 为环境变量前缀。
const EnvPrefix = "IMGSHRINK_"

// Defaults 返回参考配置：512x512 源网格，因子 4，原地改写 Core/Src/image_data.c。
func Defaults() Config {
	return Config{
		Input: "Core/Src/image_data.c",
		Geometry: Geometry{
			SourceWidth:  512,
			SourceHeight: 512,
			Factor:       4,
		},
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader:  "fs",
			Parser:  "digits",
			Reducer: "mean",
			Emitter: "carray",
			Writer:  "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile 按扩展名解析配置文件：.yaml/.yml 经 yaml.v3 转为 JSON 后严格解码，其余按 JSON。
func LoadFile(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		raw, err := YAMLToJSON(b)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
		if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
			return Config{}, nil
		}
		return LoadJSON("", raw)
	default:
		return LoadJSON(path, nil)
	}
}

// YAMLToJSON 将 YAML 文档转换为等价 JSON（映射键必须为字符串）。
func YAMLToJSON(b []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	norm, err := normalizeYAML(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(norm)
}

func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			nv, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("yaml: non-string key %v", k)
			}
			nv, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			nv, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}

// ResolveFile 决定配置文件路径：显式路径 > IMGSHRINK_CONFIG_FILE > 当前目录 imgshrink.{json,yaml,yml}。
// 未找到时返回空串（仅使用默认值）。
func ResolveFile(explicit string, environ []string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(lookup(environ, EnvPrefix+"CONFIG_FILE")); p != "" {
		return p
	}
	for _, name := range []string{"imgshrink.json", "imgshrink.yaml", "imgshrink.yml"} {
		if st, err := os.Stat(name); err == nil && st.Mode().IsRegular() {
			return name
		}
	}
	return ""
}

// Load 按优先级构建配置：默认 < 文件 < IMGSHRINK_CONFIG_JSON < 环境变量。
// CLI flags 由调用方在其后 Merge。
func Load(explicit string, environ []string) (Config, error) {
	cfg := Defaults()
	if p := ResolveFile(explicit, environ); p != "" {
		fc, err := LoadFile(p)
		if err != nil {
			return Config{}, err
		}
		cfg = Merge(cfg, fc)
	}
	if raw := strings.TrimSpace(lookup(environ, EnvPrefix+"CONFIG_JSON")); raw != "" {
		jc, err := LoadJSON("", []byte(raw))
		if err != nil {
			return Config{}, fmt.Errorf("config: %sCONFIG_JSON: %w", EnvPrefix, err)
		}
		cfg = Merge(cfg, jc)
	}
	over, err := EnvOverlay(environ)
	if err != nil {
		return Config{}, err
	}
	return Merge(cfg, over), nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。零值视为未设置。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.Input); s != "" {
		out.Input = s
	}
	if s := strings.TrimSpace(over.Output); s != "" {
		out.Output = s
	}
	if over.Geometry.SourceWidth != 0 {
		out.Geometry.SourceWidth = over.Geometry.SourceWidth
	}
	if over.Geometry.SourceHeight != 0 {
		out.Geometry.SourceHeight = over.Geometry.SourceHeight
	}
	if over.Geometry.Factor != 0 {
		out.Geometry.Factor = over.Geometry.Factor
	}
	// Logging（仅 level）
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Parser != "" {
		out.Components.Parser = over.Components.Parser
	}
	if over.Components.Reducer != "" {
		out.Components.Reducer = over.Components.Reducer
	}
	if over.Components.Emitter != "" {
		out.Components.Emitter = over.Components.Emitter
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Parser) > 0 {
		out.Options.Parser = cloneRaw(over.Options.Parser)
	}
	if len(over.Options.Reducer) > 0 {
		out.Options.Reducer = cloneRaw(over.Options.Reducer)
	}
	if len(over.Options.Emitter) > 0 {
		out.Options.Emitter = cloneRaw(over.Options.Emitter)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 IMGSHRINK_；集合之外的键与空值忽略。
// 支持：INPUT, OUTPUT, SOURCE_WIDTH, SOURCE_HEIGHT, FACTOR, LOG_LEVEL, COMPONENTS_*, OPTIONS_*_JSON
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := kv[:eq]
		val := kv[eq+1:]
		// 空值视为未设置（.env 模板中的占位键）
		if strings.TrimSpace(val) == "" {
			continue
		}
		nk := strings.TrimPrefix(key, EnvPrefix)
		var err error
		switch nk {
		case "INPUT":
			over.Input = strings.TrimSpace(val)
		case "OUTPUT":
			over.Output = strings.TrimSpace(val)
		case "SOURCE_WIDTH":
			over.Geometry.SourceWidth, err = atoi(val)
		case "SOURCE_HEIGHT":
			over.Geometry.SourceHeight, err = atoi(val)
		case "FACTOR":
			over.Geometry.Factor, err = atoi(val)
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "COMPONENTS_READER":
			over.Components.Reader = strings.TrimSpace(val)
		case "COMPONENTS_PARSER":
			over.Components.Parser = strings.TrimSpace(val)
		case "COMPONENTS_REDUCER":
			over.Components.Reducer = strings.TrimSpace(val)
		case "COMPONENTS_EMITTER":
			over.Components.Emitter = strings.TrimSpace(val)
		case "COMPONENTS_WRITER":
			over.Components.Writer = strings.TrimSpace(val)
		case "OPTIONS_READER_JSON":
			over.Options.Reader = rawOrNil(val)
		case "OPTIONS_PARSER_JSON":
			over.Options.Parser = rawOrNil(val)
		case "OPTIONS_REDUCER_JSON":
			over.Options.Reducer = rawOrNil(val)
		case "OPTIONS_EMITTER_JSON":
			over.Options.Emitter = rawOrNil(val)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = rawOrNil(val)
		default:
			// CONFIG_FILE / CONFIG_JSON 由 Load 处理；其余忽略。
		}
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", key, err)
		}
	}
	return over, nil
}

// SetOption 在组件 Options 原样 JSON 上设置单个键（用于 CLI flag 覆盖，如 per_line）。
func SetOption(raw json.RawMessage, key string, v any) (json.RawMessage, error) {
	m := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("config: options: %w", err)
		}
		if m == nil {
			m = map[string]any{}
		}
	}
	m[key] = v
	return json.Marshal(m)
}

func lookup(environ []string, key string) string {
	val := ""
	for _, kv := range environ {
		if strings.HasPrefix(kv, key+"=") {
			val = kv[len(key)+1:]
		}
	}
	return val
}

// rawOrNil: 空值视为未设置，避免清空现有配置。
func rawOrNil(val string) json.RawMessage {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	return json.RawMessage(val)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
