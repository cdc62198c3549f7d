package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 参考几何 512x512 / 4，原地改写 Core/Src/image_data.c；
// - 组件名采用仓库内置实现；
// - Options 包含所有键（值为安全中性默认），便于按需修改。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536
}`)
	cfg.Options.Parser = json.RawMessage(`{
  "max_sample": 0
}`)
	// blockmean 当前无配置项，保持空对象
	cfg.Options.Reducer = json.RawMessage(`{}`)
	cfg.Options.Emitter = json.RawMessage(`{
  "include": "#include \"image_data.h\"",
  "declaration": "const unsigned char IMG[IMG_W*IMG_H] = {",
  "footer": "};",
  "indent": "  ",
  "per_line": 16
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "",
  "atomic": true,
  "flat": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
