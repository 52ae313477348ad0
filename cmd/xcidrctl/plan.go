package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/omeyang/ipkit/pkg/config/xplan"
	"github.com/omeyang/ipkit/pkg/ipnet/xcidr"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// defaultDebounce plan watch 的默认去抖间隔。
	// 比 xplan 库的默认值更宽，编辑器连续保存时只触发一次重载。
	defaultDebounce = 500 * time.Millisecond

	logFormatText = "text"
	logFormatJSON = "json"

	// lumberjack 轮转策略
	logMaxSizeMB  = 100
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// createPlanCommand 创建 plan 子命令组。
func createPlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "地址规划文件操作",
		Commands: []*cli.Command{
			createPlanCheckCommand(),
			createPlanWatchCommand(),
		},
	}
}

// createPlanCheckCommand 创建 plan check 子命令。
func createPlanCheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "校验规划文件并报告地址池",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "存在重叠地址池时返回退出码 1",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			parseOpts, err := globalParseOpts(cmd)
			if err != nil {
				return err
			}
			return cmdPlanCheck(ctx, cmd.Root().Writer, cmd.Args().Slice(), cmd.Bool("strict"), parseOpts)
		},
	}
}

// planWatchConfig plan watch 子命令的运行选项。
type planWatchConfig struct {
	debounce  time.Duration // 文件事件去抖间隔
	logFile   string        // 日志输出文件，空表示 stderr
	logFormat string        // 日志格式 (text/json)
}

// createPlanWatchCommand 创建 plan watch 子命令。
func createPlanWatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "监视规划文件并在变更时重载",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "debounce",
				Aliases: []string{"d"},
				Usage:   "文件事件去抖间隔",
				Value:   defaultDebounce,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志输出文件（按大小轮转），缺省输出到 stderr",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: logFormatText,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			parseOpts, err := globalParseOpts(cmd)
			if err != nil {
				return err
			}
			cfg := planWatchConfig{
				debounce:  cmd.Duration("debounce"),
				logFile:   cmd.String("log-file"),
				logFormat: cmd.String("log-format"),
			}
			return cmdPlanWatch(ctx, cmd.Args().Slice(), cfg, parseOpts)
		},
	}
}

// cmdPlanCheck 加载规划文件并打印地址池报告。
// 重叠地址池只作为报告内容输出；--strict 时存在重叠返回非零退出码
// （通过 exitError，报告本身已完整打印）。
func cmdPlanCheck(ctx context.Context, out io.Writer, args []string, strict bool, parseOpts []xcidr.ParseOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(args) != 1 {
		return &usageError{msg: "plan check 命令需要一个规划文件参数"}
	}

	plan, err := xplan.New(args[0], xplan.WithParseOptions(parseOpts...))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "计划: %s (格式: %s, 地址池: %d)\n", plan.Path(), plan.Format(), plan.Len())

	pools := plan.Pools()
	if len(pools) > 0 {
		fmt.Fprintln(out)
		for _, pool := range pools {
			if r, ok := pool.Subnets(); ok {
				fmt.Fprintf(out, "  %-12s %-24s [/%d 子网 × %s]\n", pool.Name, pool.Network, pool.SubnetLen, r.Count())
				continue
			}
			fmt.Fprintf(out, "  %-12s %s\n", pool.Name, pool.Network)
		}
	}

	overlaps := plan.OverlappingPools()
	if len(overlaps) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "重叠地址池:")
		for _, pair := range overlaps {
			fmt.Fprintf(out, "  %s 与 %s\n", pair[0], pair[1])
		}
		if strict {
			return &exitError{code: 1}
		}
	}
	return nil
}

// cmdPlanWatch 监视规划文件，变更时重载并记录结果日志。
// 命令阻塞运行，直到收到取消信号（Ctrl+C）后正常退出。
func cmdPlanWatch(ctx context.Context, args []string, cfg planWatchConfig, parseOpts []xcidr.ParseOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(args) != 1 {
		return &usageError{msg: "plan watch 命令需要一个规划文件参数"}
	}
	if cfg.debounce <= 0 {
		return &usageError{msg: fmt.Sprintf("--debounce 必须为正数: %v", cfg.debounce)}
	}

	logger, cleanup, err := buildLogger(cfg.logFile, cfg.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	path := args[0]
	plan, err := xplan.New(path, xplan.WithParseOptions(parseOpts...))
	if err != nil {
		return err
	}

	callback := func(p *xplan.Plan, err error) {
		if err != nil {
			logger.Error("plan reload failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return
		}
		logger.Info("plan reloaded",
			slog.String("path", path),
			slog.Int("pools", p.Len()))
		logOverlaps(logger, p)
	}

	w, err := plan.Watch(callback, xplan.WithDebounce(cfg.debounce))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	w.StartAsync()
	logger.Info("watching plan",
		slog.String("path", path),
		slog.Int("pools", plan.Len()),
		slog.Duration("debounce", cfg.debounce))
	logOverlaps(logger, plan)

	<-ctx.Done()
	logger.Info("watch stopped", slog.String("path", path))
	return nil
}

// logOverlaps 把计划中的重叠地址池逐对记录为 Warn 日志。
func logOverlaps(logger *slog.Logger, p *xplan.Plan) {
	for _, pair := range p.OverlappingPools() {
		logger.Warn("pools overlap",
			slog.String("pool", pair[0]),
			slog.String("other", pair[1]))
	}
}

// buildLogger 构建 plan watch 使用的日志实例。
// logFile 为空时输出到 stderr；非空时经 lumberjack 按大小轮转写入。
// 返回的清理函数释放文件资源（stderr 输出时为空操作）。
func buildLogger(logFile, format string) (*slog.Logger, func() error, error) {
	if format != logFormatText && format != logFormatJSON {
		return nil, nil, &usageError{msg: fmt.Sprintf("无效的日志格式 %q (可选: text/json)", format)}
	}

	var out io.Writer = os.Stderr
	cleanup := func() error { return nil }
	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		out = rotator
		cleanup = rotator.Close
	}

	var handler slog.Handler
	switch format {
	case logFormatJSON:
		handler = slog.NewJSONHandler(out, nil)
	default:
		handler = slog.NewTextHandler(out, nil)
	}
	return slog.New(handler), cleanup, nil
}
