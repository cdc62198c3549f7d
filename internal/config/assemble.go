package config

import (
	"errors"
	"fmt"
	"strings"

	"imgshrink/internal/pipeline"
	"imgshrink/pkg/contract"
	"imgshrink/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return errors.New("config: input path cannot be empty")
	}
	if err := contract.ValidateGeometry(geometryOf(cfg)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch parseLevelName(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", cfg.Logging.Level)
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered (have %v)", name, registry.Names(registry.Reader))
	}
	if name := effName(cfg.Components.Parser, d.Parser); registry.Parser[name] == nil {
		return fmt.Errorf("config: parser %q not registered (have %v)", name, registry.Names(registry.Parser))
	}
	if name := effName(cfg.Components.Reducer, d.Reducer); registry.Reducer[name] == nil {
		return fmt.Errorf("config: reducer %q not registered (have %v)", name, registry.Names(registry.Reducer))
	}
	if name := effName(cfg.Components.Emitter, d.Emitter); registry.Emitter[name] == nil {
		return fmt.Errorf("config: emitter %q not registered (have %v)", name, registry.Names(registry.Emitter))
	}
	wname := effName(cfg.Components.Writer, d.Writer)
	if registry.Writer[wname] == nil {
		return fmt.Errorf("config: writer %q not registered (have %v)", wname, registry.Names(registry.Writer))
	}
	// 目标缺省为输入；STDIN 无法原地改写，除非写往标准输出
	target := cfg.Output
	if strings.TrimSpace(target) == "" {
		target = cfg.Input
	}
	if wname != "stdout" && contract.NormalizeSourceID(target) == "-" {
		return fmt.Errorf("config: writer %q cannot write to STDIN/STDOUT \"-\"; set output to a file path or use the stdout writer (--dry-run)", wname)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	d := Defaults().Components
	r, err := registry.Reader[effName(cfg.Components.Reader, d.Reader)](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reader options: %w", err)
	}
	p, err := registry.Parser[effName(cfg.Components.Parser, d.Parser)](cfg.Options.Parser)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: parser options: %w", err)
	}
	red, err := registry.Reducer[effName(cfg.Components.Reducer, d.Reducer)](cfg.Options.Reducer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reducer options: %w", err)
	}
	em, err := registry.Emitter[effName(cfg.Components.Emitter, d.Emitter)](cfg.Options.Emitter)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: emitter options: %w", err)
	}
	w, err := registry.Writer[effName(cfg.Components.Writer, d.Writer)](cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: writer options: %w", err)
	}

	comp := pipeline.Components{
		Reader:  r,
		Parser:  p,
		Reducer: red,
		Emitter: em,
		Writer:  w,
	}
	in := contract.NormalizeSourceID(cfg.Input)
	out := in
	if s := strings.TrimSpace(cfg.Output); s != "" {
		out = contract.NormalizeSourceID(s)
	}
	set := pipeline.Settings{
		Input:    in,
		Output:   out,
		Geometry: geometryOf(cfg),
	}
	return comp, set, nil
}

func geometryOf(cfg Config) contract.Geometry {
	return contract.Geometry{
		Source: contract.Grid{Width: cfg.Geometry.SourceWidth, Height: cfg.Geometry.SourceHeight},
		Factor: cfg.Geometry.Factor,
	}
}

func parseLevelName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
