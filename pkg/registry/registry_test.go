package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"imgshrink/pkg/contract"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口。
func TestFactories(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		if _, err := Reader["fs"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("reader: %v", err)
		}
		if _, err := Reader["fs"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("reader 未对未知字段报错")
		}
	})
	t.Run("parser", func(t *testing.T) {
		if _, err := Parser["digits"](json.RawMessage(`{"max_sample":255}`)); err != nil {
			t.Fatalf("parser: %v", err)
		}
		if _, err := Parser["digits"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("parser 未对未知字段报错")
		}
		if _, err := Parser["digits"](json.RawMessage(`{"max_sample":-1}`)); !errors.Is(err, contract.ErrInvalidInput) {
			t.Fatalf("parser 未按预期报错: %v", err)
		}
	})
	t.Run("reducer", func(t *testing.T) {
		if _, err := Reducer["mean"](nil); err != nil {
			t.Fatalf("reducer: %v", err)
		}
		if _, err := Reducer["mean"](json.RawMessage(`{"x":1}`)); err == nil {
			t.Fatalf("reducer 未对未知字段报错")
		}
		if _, err := Reducer["mean"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("reducer 空对象: %v", err)
		}
	})
	t.Run("emitter", func(t *testing.T) {
		if _, err := Emitter["carray"](json.RawMessage(`{"per_line":8}`)); err != nil {
			t.Fatalf("emitter: %v", err)
		}
		if _, err := Emitter["carray"](json.RawMessage(`{"per_line":-2}`)); !errors.Is(err, contract.ErrInvalidInput) {
			t.Fatalf("emitter 未按预期报错: %v", err)
		}
	})
	t.Run("writer", func(t *testing.T) {
		tmp := t.TempDir()
		raw := json.RawMessage([]byte(fmt.Sprintf(`{"output_dir":%q}`, tmp)))
		if _, err := Writer["fs"](raw); err != nil {
			t.Fatalf("writer: %v", err)
		}
		if _, err := Writer["fs"](nil); err != nil {
			t.Fatalf("writer 原地模式: %v", err)
		}
		bad := json.RawMessage([]byte(fmt.Sprintf(`{"output_dir":%q,"x":1}`, tmp)))
		if _, err := Writer["fs"](bad); err == nil {
			t.Fatalf("writer 未对未知字段报错")
		}
		if _, err := Writer["stdout"](nil); err != nil {
			t.Fatalf("stdout: %v", err)
		}
		if _, err := Writer["stdout"](json.RawMessage(`{}`)); err != nil {
			t.Fatalf("stdout 空对象: %v", err)
		}
		if _, err := Writer["stdout"](json.RawMessage(`{"atomic":true}`)); err == nil {
			t.Fatalf("stdout 未对未知字段报错")
		}
	})
}

func TestNames(t *testing.T) {
	got := Names(Writer)
	if len(got) != 2 || got[0] != "fs" || got[1] != "stdout" {
		t.Fatalf("names %v", got)
	}
}
