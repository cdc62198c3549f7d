package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "imgshrink/internal/config"
	"imgshrink/internal/diag"
	"imgshrink/internal/pipeline"
	"imgshrink/pkg/contract"
	wstdout "imgshrink/plugins/writer/stdout"
)

var pipelineRun = pipeline.Run

// 退出码：0 成功；1 运行期失败；3 配置/装配失败。
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 3
)

// exitError 携带退出码；消息已在返回前打印到 stderr。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flags 为命令行旗标集合；仅 Changed 的旗标参与覆盖。
type flags struct {
	config   string
	input    string
	output   string
	width    int
	height   int
	factor   int
	perLine  int
	logLevel string
	dryRun   bool
	status   bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		// 旗标/参数解析错误
		fprintf(stderr, "参数错误: %v\n", err)
		return exitConfig
	}
	return exitOK
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "imgshrink",
		Short: "将 C 源文件中的灰度图数组按块均值缩小并原地改写",
		Long: `imgshrink 读取形如 const unsigned char IMG[IMG_W*IMG_H] = {...} 的 C 数组定义，
按 factor×factor 块求算术均值（向下取整）缩小图像，并重写整个文件。
无参数运行即使用参考配置：Core/Src/image_data.c，512x512，factor 4。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShrink(cmd, f, stdout, stderr)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "配置文件路径（JSON/YAML）；缺省读取 ./imgshrink.json|yaml（若存在）")
	pf.StringVar(&f.logLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	pf.BoolVar(&f.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")

	fl := root.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "输入 C 源文件；\"-\" 表示 STDIN（覆盖配置）")
	fl.StringVarP(&f.output, "output", "o", "", "输出路径；缺省原地改写输入（覆盖配置）")
	fl.IntVar(&f.width, "width", 0, "源图宽度（覆盖配置）")
	fl.IntVar(&f.height, "height", 0, "源图高度（覆盖配置）")
	fl.IntVarP(&f.factor, "factor", "f", 0, "缩小倍数，需整除宽高（覆盖配置）")
	fl.IntVar(&f.perLine, "per-line", 0, "每行输出的数值个数（覆盖 options.emitter.per_line）")
	fl.BoolVar(&f.dryRun, "dry-run", false, "仅输出到标准输出，不改写文件")

	root.AddCommand(newInitConfigCmd(stderr))
	return root
}

func newInitConfigCmd(stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [dir]",
		Short: "在指定目录生成默认配置 imgshrink.json 和 .env 模板（若已存在则跳过，不覆盖）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = strings.TrimSpace(args[0])
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fprintf(stderr, "生成默认配置失败: %v\n", err)
				return &exitError{code: exitConfig, err: err}
			}
			cfgPath := filepath.Join(dir, "imgshrink.json")
			created, err := writeConfig(cfgPath, cfgpkg.DefaultTemplateConfig())
			if err != nil {
				fprintf(stderr, "生成默认配置失败: %v\n", err)
				return &exitError{code: exitConfig, err: err}
			}
			if !created {
				fprintf(stderr, "提示：%s 已存在，已跳过\n", cfgPath)
			}
			if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
				fprintf(stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
			}
			return nil
		},
	}
}

func runShrink(cmd *cobra.Command, f flags, stdout, stderr io.Writer) error {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")
	// 先占位默认，稍后在解析/合并配置后重建 logger 以使用最终 level
	logger := diag.NewLogger(corrID, "info")
	fail := func(code int, format string, err error) error {
		fprintf(stderr, format, err)
		logger.Error("pipeline", string(diag.Classify(err)), "first error: "+err.Error(), &start)
		_ = logger.Sync()
		return &exitError{code: code, err: err}
	}

	cfg, err := cfgpkg.Load(f.config, os.Environ())
	if err != nil {
		return fail(exitConfig, "配置解析失败: %v\n", err)
	}
	cfg, err = applyFlags(cmd, cfg, f)
	if err != nil {
		return fail(exitConfig, "参数错误: %v\n", err)
	}

	// 基本校验 & 装配
	if err := cfgpkg.Validate(cfg); err != nil {
		// 提示打印有效配置，便于诊断
		_ = dumpConfig(stderr, cfg)
		return fail(exitConfig, "配置校验失败: %v\n", err)
	}

	// 使用最终配置中的日志级别重建 logger
	_ = logger.Sync()
	logger = diag.NewLogger(corrID, cfg.Logging.Level)
	defer func() { _ = logger.Sync() }()

	// 预检：若使用文件系统 Writer 且配置了输出目录，检查其可写性
	if err := preflightCheckOutputDir(cfg); err != nil {
		return fail(exitConfig, "输出目录不可写或无法创建: %v\n", err)
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return fail(exitConfig, "装配失败: %v\n", err)
	}
	// stdout Writer 写往命令的标准输出；此时不再回显确认行
	_, toStdout := comp.Writer.(*wstdout.Writer)
	if toStdout {
		comp.Writer = wstdout.NewTo(stdout)
	}

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	term := diag.NewTerminal(stderr, f.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	tgt := set.Geometry.Target()
	term.RunStart(string(set.Input), fmt.Sprintf("%dx%d -> %dx%d /%d",
		set.Geometry.Source.Width, set.Geometry.Source.Height, tgt.Width, tgt.Height, set.Geometry.Factor))

	logger.DebugStart("config", "effective", string(set.Input), map[string]string{
		"output":        string(set.Output),
		"source_width":  strconv.Itoa(cfg.Geometry.SourceWidth),
		"source_height": strconv.Itoa(cfg.Geometry.SourceHeight),
		"factor":        strconv.Itoa(cfg.Geometry.Factor),
		"reader":        cfg.Components.Reader,
		"parser":        cfg.Components.Parser,
		"reducer":       cfg.Components.Reducer,
		"emitter":       cfg.Components.Emitter,
		"writer":        cfg.Components.Writer,
	})

	// 运行流水线
	t := logger.StartWithKV("pipeline", "run", string(set.Input), map[string]string{"corr_id": corrID})
	res, err := pipelineRun(cmd.Context(), comp, set, logger)
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error: "+err.Error(), &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start), "")
		return &exitError{code: exitRuntime, err: err}
	}
	t.Finish("run", int64(res.Reduced))
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	logMetrics(logger)

	dest := displayTarget(comp.Writer, res.Output)
	term.RunFinish(true, time.Since(start), dest)
	if toStdout || dest == "" {
		return nil
	}
	fprintf(stdout, "已写入: %s\n", dest)
	return nil
}

// applyFlags 将显式给出的 CLI 旗标合并到配置（最高优先级）。
func applyFlags(cmd *cobra.Command, cfg cfgpkg.Config, f flags) (cfgpkg.Config, error) {
	var over cfgpkg.Config
	changed := cmd.Flags().Changed
	if changed("input") {
		over.Input = f.input
	}
	if changed("output") {
		over.Output = f.output
	}
	if changed("log-level") {
		over.Logging.Level = f.logLevel
	}
	cfg = cfgpkg.Merge(cfg, over)
	// 几何旗标允许显式 0，以便交给 Validate 报错
	if changed("width") {
		cfg.Geometry.SourceWidth = f.width
	}
	if changed("height") {
		cfg.Geometry.SourceHeight = f.height
	}
	if changed("factor") {
		cfg.Geometry.Factor = f.factor
	}
	if changed("per-line") {
		if f.perLine < 1 {
			return cfg, fmt.Errorf("--per-line must be >= 1, got %d", f.perLine)
		}
		raw, err := cfgpkg.SetOption(cfg.Options.Emitter, "per_line", f.perLine)
		if err != nil {
			return cfg, err
		}
		cfg.Options.Emitter = raw
	}
	if f.dryRun {
		cfg.Components.Writer = "stdout"
		cfg.Options.Writer = nil
	}
	return cfg, nil
}

// targeter 由可回显落盘路径的 Writer 实现（fs）。
type targeter interface {
	Target(id contract.SourceID) (string, error)
}

func displayTarget(w contract.Writer, id contract.SourceID) string {
	if t, ok := w.(targeter); ok {
		if p, err := t.Target(id); err == nil {
			return p
		}
	}
	return string(id)
}

// logMetrics 在 debug 级别输出本次运行的计数器汇总。
func logMetrics(logger *diag.Logger) {
	snap := diag.Snapshot()
	kv := make(map[string]string, len(snap))
	for _, k := range diag.Keys(snap) {
		kv[k] = strconv.FormatInt(snap[k], 10)
	}
	logger.DebugStart("metrics", "summary", "", kv)
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = w.Write(append([]byte("有效配置:\n"), b...))
	_, _ = w.Write([]byte("\n"))
	return nil
}

// writeConfig 写出配置模板；目标已存在时不覆盖并返回 created=false。
// path 为 "-" 时写到标准输出。
func writeConfig(path string, c cfgpkg.Config) (bool, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return false, err
	}
	b = append(b, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(b)
		return err == nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return false, err
	}
	return true, nil
}

// preflightCheckOutputDir: 当 Writer 使用文件系统实现(fs)且设置了 output_dir 时，启动前检查输出目录可写性。
// 规则：
// - 若目录已存在：尝试创建并删除临时文件；失败则判为不可写。
// - 若目录不存在：检查父目录是否可写（尝试在父目录创建并删除临时目录）。
func preflightCheckOutputDir(cfg cfgpkg.Config) error {
	writerName := strings.TrimSpace(cfg.Components.Writer)
	if writerName == "" {
		writerName = cfgpkg.Defaults().Components.Writer
	}
	if writerName != "fs" {
		return nil
	}
	var wopts struct {
		OutputDir string `json:"output_dir"`
	}
	if len(cfg.Options.Writer) > 0 {
		_ = json.Unmarshal(cfg.Options.Writer, &wopts)
	}
	dir := strings.TrimSpace(wopts.OutputDir)
	if dir == "" {
		// 原地改写：由 Reader 负责报告输入缺失
		return nil
	}
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil
	} else if err == nil {
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	} else if !os.IsNotExist(err) {
		return err
	}
	parent := filepath.Dir(dir)
	pst, err := os.Stat(parent)
	if err != nil {
		return err
	}
	if !pst.IsDir() {
		return fmt.Errorf("父路径不是目录: %s", parent)
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	_ = os.RemoveAll(tmpd)
	return nil
}
