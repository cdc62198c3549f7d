package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"imgshrink/internal/diag"
	"imgshrink/pkg/contract"
)

// - 全量缓冲：读取整个输入，内存中完成 解析 → 计数校验 → 缩减 → 计数校验 → 渲染。
// - 写在最后：仅当内存阶段全部成功后才调用 Writer；任何失败都不触碰目标文件。
// - 计数不推断：解析结果必须恰为 源宽×源高，缩减结果必须恰为 目标宽×目标高。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader  contract.Reader
	Parser  contract.Parser
	Reducer contract.Reducer
	Emitter contract.Emitter
	Writer  contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Input contract.SourceID
	// Output 为空时写回 Input（原地改写）。
	Output   contract.SourceID
	Geometry contract.Geometry
}

// Result 为一次运行的产物与计数。
type Result struct {
	Output contract.SourceID
	Text   string
	// Parsed/Reduced: 两个计数校验点实际观察到的样本数。
	Parsed  int
	Reduced int
}

// Transform 纯内存变换：文本 → 解析 → 缩减 → 渲染；不涉及 Reader/Writer。
func Transform(ctx context.Context, comp Components, set Settings, text string) (Result, error) {
	return transform(ctx, comp, set, text, nil)
}

// Run 执行完整流水线：Reader → Parser → Reducer → Emitter → Writer。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Result, error) {
	if err := sanity(comp, set, true); err != nil {
		return Result{}, fmt.Errorf("sanity: %w", err)
	}
	fileID := string(set.Input)
	out := set.Output
	if out == "" {
		out = set.Input
	}

	// 读取
	runStart := time.Now()
	start := runStart
	rtimer := logger.StartWith("reader", "read", fileID)
	text, err := readAll(ctx, comp.Reader, set.Input)
	if err != nil {
		stageFailed(logger, "reader", "read failed", fileID, start, err, nil)
		return Result{}, fmt.Errorf("reader open: %w", err)
	}
	rtimer.Finish("read", int64(len(text)))
	stageDone("reader", start)

	res, err := transform(ctx, comp, set, text, logger)
	if err != nil {
		return Result{}, err
	}

	// 写出（最后一步）
	start = time.Now()
	wtimer := logger.StartWithKV("writer", "write", string(out), map[string]string{"bytes": strconv.Itoa(len(res.Text))})
	if err := comp.Writer.Write(ctx, out, strings.NewReader(res.Text)); err != nil {
		stageFailed(logger, "writer", "write failed", string(out), start, err, nil)
		return Result{}, fmt.Errorf("writer write: %w", err)
	}
	wtimer.Finish("write", int64(res.Reduced))
	stageDone("writer", start)
	logger.InfoFinish("pipeline", "run", runStart, int64(res.Reduced))
	res.Output = out
	return res, nil
}

func transform(ctx context.Context, comp Components, set Settings, text string, logger *diag.Logger) (Result, error) {
	if err := sanity(comp, set, false); err != nil {
		return Result{}, fmt.Errorf("sanity: %w", err)
	}
	if err := contract.ValidateGeometry(set.Geometry); err != nil {
		return Result{}, err
	}
	fileID := string(set.Input)
	term := diag.GetTerminal()

	// 解析
	start := time.Now()
	ptimer := logger.StartWith("parser", "parse", fileID)
	samples, err := comp.Parser.Parse(ctx, text)
	if err != nil {
		stageFailed(logger, "parser", "parse failed", fileID, start, err, nil)
		return Result{}, fmt.Errorf("parser parse: %w", err)
	}
	// 计数校验先于缩减
	if err := contract.CheckCount("parse", len(samples), set.Geometry.Source.Pixels()); err != nil {
		stageFailed(logger, "parser", "sample count mismatch", fileID, start, err, countKV(len(samples), set.Geometry.Source.Pixels()))
		return Result{}, err
	}
	ptimer.Finish("parse", int64(len(samples)))
	stageDone("parser", start)
	term.Stage("parse", len(samples))

	// 缩减
	start = time.Now()
	tgt := set.Geometry.Target()
	rtimer := logger.StartWithKV("reducer", "reduce", fileID, map[string]string{
		"source": gridString(set.Geometry.Source),
		"target": gridString(tgt),
		"factor": strconv.Itoa(set.Geometry.Factor),
	})
	reduced, err := comp.Reducer.Reduce(ctx, samples, set.Geometry)
	if err != nil {
		stageFailed(logger, "reducer", "reduce failed", fileID, start, err, nil)
		return Result{}, fmt.Errorf("reducer reduce: %w", err)
	}
	if err := contract.CheckOutput("reduce", len(reduced), tgt.Pixels()); err != nil {
		stageFailed(logger, "reducer", "sample count mismatch", fileID, start, err, countKV(len(reduced), tgt.Pixels()))
		return Result{}, err
	}
	rtimer.Finish("reduce", int64(len(reduced)))
	stageDone("reducer", start)
	term.Stage("reduce", len(reduced))

	// 渲染（完整缓冲）
	start = time.Now()
	etimer := logger.StartWith("emitter", "emit", fileID)
	r, err := comp.Emitter.Emit(ctx, reduced)
	if err != nil {
		stageFailed(logger, "emitter", "emit failed", fileID, start, err, nil)
		return Result{}, fmt.Errorf("emitter emit: %w", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		stageFailed(logger, "emitter", "emit failed", fileID, start, err, nil)
		return Result{}, fmt.Errorf("emitter read: %w", err)
	}
	etimer.Finish("emit", int64(b.Len()))
	stageDone("emitter", start)
	term.Stage("emit", len(reduced))

	return Result{
		Output:  set.Output,
		Text:    b.String(),
		Parsed:  len(samples),
		Reduced: len(reduced),
	}, nil
}

func readAll(ctx context.Context, r contract.Reader, id contract.SourceID) (string, error) {
	rc, err := r.Open(ctx, id)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(b), nil
}

// stageFailed 记录 error 事件并累加错误指标。
func stageFailed(logger *diag.Logger, comp, msg, fileID string, start time.Time, err error, kv map[string]string) {
	code := diag.Classify(err)
	logger.ErrorWithKV(comp, string(code), msg+": "+err.Error(), &start, fileID, kv)
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

func stageDone(comp string, start time.Time) {
	diag.IncOp(comp, "finish", "success")
	diag.ObserveDuration(comp, "finish", time.Since(start).Milliseconds())
}

func countKV(got, want int) map[string]string {
	return map[string]string{"got": strconv.Itoa(got), "want": strconv.Itoa(want)}
}

func gridString(g contract.Grid) string {
	return strconv.Itoa(g.Width) + "x" + strconv.Itoa(g.Height)
}

func sanity(c Components, s Settings, withIO bool) error {
	if c.Parser == nil || c.Reducer == nil || c.Emitter == nil {
		return errors.New("pipeline: missing components")
	}
	if withIO {
		if c.Reader == nil || c.Writer == nil {
			return errors.New("pipeline: missing components")
		}
		if strings.TrimSpace(string(s.Input)) == "" {
			return fmt.Errorf("%w: empty input", contract.ErrPathInvalid)
		}
	}
	return nil
}
