package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"imgshrink/pkg/contract"
	carray "imgshrink/plugins/emitter/carray"
	digitrun "imgshrink/plugins/parser/digitrun"
	rfs "imgshrink/plugins/reader/filesystem"
	blockmean "imgshrink/plugins/reducer/blockmean"
	wfs "imgshrink/plugins/writer/filesystem"
	wstdout "imgshrink/plugins/writer/stdout"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewParser 工厂签名：接收原样 JSON Options。
type NewParser func(raw json.RawMessage) (contract.Parser, error)

// NewReducer 工厂签名：接收原样 JSON Options。
type NewReducer func(raw json.RawMessage) (contract.Reducer, error)

// NewEmitter 工厂签名：接收原样 JSON Options。
type NewEmitter func(raw json.RawMessage) (contract.Emitter, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Parser 工厂注册表。
var Parser = map[string]NewParser{
	// digits: 花括号内最长数字串抽取
	"digits": func(raw json.RawMessage) (contract.Parser, error) {
		var opts digitrun.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return digitrun.New(&opts)
	},
}

// Reducer 工厂注册表。
var Reducer = map[string]NewReducer{
	// mean: 不重叠块算术均值（向下取整）
	"mean": func(raw json.RawMessage) (contract.Reducer, error) {
		var opts blockmean.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return blockmean.New(&opts)
	},
}

// Emitter 工厂注册表。
var Emitter = map[string]NewEmitter{
	// carray: C 数组定义（include + 声明 + 定宽换行字面量）
	"carray": func(raw json.RawMessage) (contract.Emitter, error) {
		var opts carray.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return carray.New(&opts)
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（原地/输出目录，覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
	// stdout: dry-run，输出到标准输出
	"stdout": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wstdout.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wstdout.New(&opts)
	},
}

// Names 返回注册表键的有序列表（用于帮助信息与报错）。
func Names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
