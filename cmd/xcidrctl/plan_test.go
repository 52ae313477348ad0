package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/omeyang/ipkit/pkg/config/xplan"
)

const checkPlan = `pools:
  - name: office
    cidr: 10.20.30.40/16
    subnets: 24
  - name: lab
    cidr: 192.168.0.0/16
`

const overlapPlan = `pools:
  - name: backbone
    cidr: 10.0.0.0/8
  - name: office
    cidr: 10.20.0.0/16
`

const watchPlanV1 = `pools:
  - name: office
    cidr: 10.20.30.40/16
`

const watchPlanV2 = `pools:
  - name: office
    cidr: 10.20.30.40/16
  - name: lab
    cidr: 192.168.0.0/16
`

// writePlanFile 在临时目录写入规划文件并返回路径。
func writePlanFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write plan file: %v", err)
	}
	return path
}

func TestCmdPlanCheck(t *testing.T) {
	path := writePlanFile(t, "plan.yaml", checkPlan)

	var buf bytes.Buffer
	err := cmdPlanCheck(context.Background(), &buf, []string{path}, false, nil)
	if err != nil {
		t.Fatalf("cmdPlanCheck error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"地址池: 2",
		"office",
		"10.20.0.0/16",
		"[/24 子网 × 256]",
		"lab",
		"192.168.0.0/16",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "重叠") {
		t.Errorf("output should not mention overlaps:\n%s", out)
	}
}

func TestCmdPlanCheckOverlap(t *testing.T) {
	path := writePlanFile(t, "plan.yaml", overlapPlan)

	// 非严格模式: 报告重叠但正常退出
	var buf bytes.Buffer
	err := cmdPlanCheck(context.Background(), &buf, []string{path}, false, nil)
	if err != nil {
		t.Fatalf("cmdPlanCheck error: %v", err)
	}
	if !strings.Contains(buf.String(), "重叠地址池:") {
		t.Errorf("output missing overlap section:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "backbone 与 office") {
		t.Errorf("output missing overlap pair:\n%s", buf.String())
	}

	// 严格模式: 报告完整打印后返回退出码 1
	buf.Reset()
	err = cmdPlanCheck(context.Background(), &buf, []string{path}, true, nil)
	var exitErr *exitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *exitError, got %T: %v", err, err)
	}
	if exitErr.code != 1 {
		t.Errorf("exitError.code = %d, want 1", exitErr.code)
	}
	if !strings.Contains(buf.String(), "backbone 与 office") {
		t.Errorf("strict mode should still print the full report:\n%s", buf.String())
	}
}

func TestCmdPlanCheckErrors(t *testing.T) {
	// 参数个数错误
	err := cmdPlanCheck(context.Background(), &bytes.Buffer{}, nil, false, nil)
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Errorf("expected *usageError for missing args, got %T: %v", err, err)
	}

	// 文件不存在: 运行失败而非参数错误
	err = cmdPlanCheck(context.Background(), &bytes.Buffer{}, []string{"/nonexistent/plan.yaml"}, false, nil)
	if !errors.Is(err, xplan.ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
	if errors.As(err, &usageErr) {
		t.Error("load failure should not be usageError")
	}

	// 文件内容非法
	path := writePlanFile(t, "plan.yaml", "pools:\n  - name: bad\n    cidr: 300.1.2.3/8\n")
	err = cmdPlanCheck(context.Background(), &bytes.Buffer{}, []string{path}, false, nil)
	if !errors.Is(err, xplan.ErrInvalidPool) {
		t.Errorf("expected ErrInvalidPool, got %v", err)
	}
}

func TestCmdPlanCheckSanitize(t *testing.T) {
	// 破折号分隔的掩码形式需要 --sanitize 才能解析
	path := writePlanFile(t, "plan.yaml", "pools:\n  - name: legacy\n    cidr: \"10.0.0.0 - 255.255.255.0\"\n")

	err := cmdPlanCheck(context.Background(), &bytes.Buffer{}, []string{path}, false, nil)
	if !errors.Is(err, xplan.ErrInvalidPool) {
		t.Errorf("expected ErrInvalidPool without sanitize, got %v", err)
	}

	opts, err := buildParseOpts(true, 0)
	if err != nil {
		t.Fatalf("buildParseOpts error: %v", err)
	}
	var buf bytes.Buffer
	if err := cmdPlanCheck(context.Background(), &buf, []string{path}, false, opts); err != nil {
		t.Fatalf("cmdPlanCheck with sanitize error: %v", err)
	}
	if !strings.Contains(buf.String(), "10.0.0.0/24") {
		t.Errorf("output missing normalized network:\n%s", buf.String())
	}
}

func TestBuildLogger(t *testing.T) {
	// 默认: text 输出到 stderr，清理函数为空操作
	logger, cleanup, err := buildLogger("", logFormatText)
	if err != nil {
		t.Fatalf("buildLogger error: %v", err)
	}
	if logger == nil {
		t.Fatal("logger is nil")
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup error: %v", err)
	}

	// json 输出到文件（经 lumberjack）
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, cleanup, err = buildLogger(logPath, logFormatJSON)
	if err != nil {
		t.Fatalf("buildLogger with file error: %v", err)
	}
	logger.Info("hello", slog.String("k", "v"))
	if err := cleanup(); err != nil {
		t.Errorf("cleanup error: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"msg":"hello"`, `"k":"v"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q:\n%s", want, data)
		}
	}
}

func TestBuildLoggerBadFormat(t *testing.T) {
	_, _, err := buildLogger("", "xml")
	if err == nil {
		t.Fatal("buildLogger with unknown format should return error")
	}
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Errorf("expected *usageError, got %T: %v", err, err)
	}
}

func TestCmdPlanWatch(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	logPath := filepath.Join(dir, "watch.log")
	if err := os.WriteFile(planPath, []byte(watchPlanV1), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := planWatchConfig{
		debounce:  50 * time.Millisecond,
		logFile:   logPath,
		logFormat: logFormatJSON,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- cmdPlanWatch(ctx, []string{planPath}, cfg, nil)
	}()

	// 等待监视器注册
	time.Sleep(150 * time.Millisecond)

	if err := os.WriteFile(planPath, []byte(watchPlanV2), 0o600); err != nil {
		t.Fatal(err)
	}

	// 等待去抖与重载完成
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("cmdPlanWatch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cmdPlanWatch did not return after cancel")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	logs := string(data)
	for _, want := range []string{
		`"msg":"watching plan"`,
		`"msg":"plan reloaded"`,
		`"pools":2`,
		`"msg":"watch stopped"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}
}

func TestCmdPlanWatchReloadError(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	logPath := filepath.Join(dir, "watch.log")
	if err := os.WriteFile(planPath, []byte(watchPlanV1), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := planWatchConfig{
		debounce:  50 * time.Millisecond,
		logFile:   logPath,
		logFormat: logFormatJSON,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- cmdPlanWatch(ctx, []string{planPath}, cfg, nil)
	}()

	time.Sleep(150 * time.Millisecond)

	// 重写为非法内容: 重载失败记录日志，监视继续
	bad := "pools:\n  - name: office\n    cidr: 10.20.30.40/16\n  - name: office\n    cidr: 10.30.0.0/16\n"
	if err := os.WriteFile(planPath, []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("cmdPlanWatch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cmdPlanWatch did not return after cancel")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"plan reload failed"`) {
		t.Errorf("log missing reload failure:\n%s", data)
	}
	if !strings.Contains(string(data), "duplicate pool") {
		t.Errorf("log missing error detail:\n%s", data)
	}
}

func TestCmdPlanWatchOverlapWarning(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	logPath := filepath.Join(dir, "watch.log")
	if err := os.WriteFile(planPath, []byte(overlapPlan), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	cfg := planWatchConfig{
		debounce:  50 * time.Millisecond,
		logFile:   logPath,
		logFormat: logFormatJSON,
	}
	go func() {
		errCh <- cmdPlanWatch(ctx, []string{planPath}, cfg, nil)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("cmdPlanWatch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cmdPlanWatch did not return after cancel")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	logs := string(data)
	if !strings.Contains(logs, `"msg":"pools overlap"`) {
		t.Errorf("log missing overlap warning:\n%s", logs)
	}
	if !strings.Contains(logs, `"pool":"backbone"`) {
		t.Errorf("log missing overlap pool name:\n%s", logs)
	}
}

func TestCmdPlanWatchValidation(t *testing.T) {
	path := writePlanFile(t, "plan.yaml", watchPlanV1)

	tests := []struct {
		name string
		args []string
		cfg  planWatchConfig
	}{
		{
			name: "no_args",
			args: nil,
			cfg:  planWatchConfig{debounce: time.Second, logFormat: logFormatText},
		},
		{
			name: "too_many_args",
			args: []string{path, path},
			cfg:  planWatchConfig{debounce: time.Second, logFormat: logFormatText},
		},
		{
			name: "zero_debounce",
			args: []string{path},
			cfg:  planWatchConfig{debounce: 0, logFormat: logFormatText},
		},
		{
			name: "negative_debounce",
			args: []string{path},
			cfg:  planWatchConfig{debounce: -time.Second, logFormat: logFormatText},
		},
		{
			name: "bad_log_format",
			args: []string{path},
			cfg:  planWatchConfig{debounce: time.Second, logFormat: "xml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cmdPlanWatch(context.Background(), tt.args, tt.cfg, nil)
			if err == nil {
				t.Fatal("cmdPlanWatch should return error")
			}
			var usageErr *usageError
			if !errors.As(err, &usageErr) {
				t.Errorf("expected *usageError, got %T: %v", err, err)
			}
		})
	}
}

func TestCmdPlanWatchLoadError(t *testing.T) {
	cfg := planWatchConfig{debounce: time.Second, logFormat: logFormatText}
	err := cmdPlanWatch(context.Background(), []string{"/nonexistent/plan.yaml"}, cfg, nil)
	if !errors.Is(err, xplan.ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		t.Error("load failure should not be usageError")
	}
}
