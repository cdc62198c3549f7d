package main

import (
	"bufio"
	"os"
	"strings"
)

// loadDotEnv 读取简单的 .env 文件格式并注入进程环境。
// 规则：
// - 忽略不存在的文件；无法读取时返回错误（但调用处可忽略）。
// - 跳过空行与以 # 开头的行；支持可选的前缀 "export "。
// - 仅按首个 '=' 分割；key/value 去首尾空白；成对的单/双引号被去除，双引号内处理 \n \t \" \\。
// - 不覆盖已存在的环境变量。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := unquote(strings.TrimSpace(line[eq+1:]))
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

func unquote(val string) string {
	if len(val) < 2 {
		return val
	}
	q := val[0]
	if (q != '\'' && q != '"') || val[len(val)-1] != q {
		return val
	}
	val = val[1 : len(val)-1]
	if q == '"' {
		val = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\"`, `"`, `\\`, `\`).Replace(val)
	}
	return val
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# imgshrink .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > IMGSHRINK_CONFIG_JSON > 配置文件 > 默认\n")
	b.WriteString("# 空值表示未设置。\n\n")

	b.WriteString("# 配置来源\n")
	b.WriteString("IMGSHRINK_CONFIG_FILE=\n")
	b.WriteString("IMGSHRINK_CONFIG_JSON=\n\n")

	b.WriteString("# 运行参数覆盖\n")
	b.WriteString("IMGSHRINK_INPUT=\n")
	b.WriteString("IMGSHRINK_OUTPUT=\n")
	b.WriteString("IMGSHRINK_SOURCE_WIDTH=\n")
	b.WriteString("IMGSHRINK_SOURCE_HEIGHT=\n")
	b.WriteString("IMGSHRINK_FACTOR=\n")
	b.WriteString("IMGSHRINK_LOG_LEVEL=\n\n")

	b.WriteString("# 组件选择与选项\n")
	for _, c := range []string{"READER", "PARSER", "REDUCER", "EMITTER", "WRITER"} {
		b.WriteString("IMGSHRINK_COMPONENTS_" + c + "=\n")
	}
	for _, c := range []string{"READER", "PARSER", "REDUCER", "EMITTER", "WRITER"} {
		b.WriteString("IMGSHRINK_OPTIONS_" + c + "_JSON=\n")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}
