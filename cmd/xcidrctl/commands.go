package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/omeyang/ipkit/pkg/ipnet/xcidr"
	"github.com/urfave/cli/v3"
)

// ctxCheckInterval 枚举循环中检查 context 取消的间隔（条目数）。
const ctxCheckInterval = 1024

// exitError 表示需要非零退出码但已完成输出的场景。
// 命令内部已完成所有输出，run() 只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 表示命令参数使用错误，run() 统一映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// isCLIUsageError 识别 urfave/cli 框架自身产生的参数类错误：
// 未知命令（ExitCoder）、未知 flag、flag 取值解析失败。
func isCLIUsageError(err error) bool {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "flag provided but not defined") ||
		strings.Contains(msg, "invalid value")
}

// setupSignalHandler 设置信号处理。
// 设计决策: 第一次信号优雅取消，第二次信号强制退出（退出码 130 = 128 + SIGINT）。
// 当命令阻塞时（如 plan watch、大范围枚举），用户可通过再次 Ctrl+C 强制退出。
// ctx 正常结束时回收信号订阅，避免 goroutine 滞留在已结束的命令之后。
func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel() // 第一次信号: 优雅取消
		case <-ctx.Done():
			signal.Stop(sigCh) // 命令已结束，回收订阅
			return
		}

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130) // 第二次信号: 强制退出
	}()
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createInfoCommand(),
		createSubnetCommand(),
		createSupernetCommand(),
		createHostsCommand(),
		createPlanCommand(),
	}
}

// buildParseOpts 把全局 flag 转换为解析选项。
// guess 非 0 时对裸地址使用固定前缀长度，替代默认的传统分类推断。
func buildParseOpts(sanitize bool, guess int) ([]xcidr.ParseOption, error) {
	var opts []xcidr.ParseOption
	if sanitize {
		opts = append(opts, xcidr.WithSanitize())
	}
	if guess != 0 {
		if guess < 0 || guess > 128 {
			return nil, &usageError{msg: fmt.Sprintf("--guess 取值 %d 超出范围 (1~128)", guess)}
		}
		opts = append(opts, xcidr.WithGuesser(xcidr.GuesserFunc(func(netip.Addr) (int, bool) {
			return guess, true
		})))
	}
	return opts, nil
}

// globalParseOpts 从命令的 flag 血统中读取全局解析选项。
func globalParseOpts(cmd *cli.Command) ([]xcidr.ParseOption, error) {
	return buildParseOpts(cmd.Bool("sanitize"), cmd.Int("guess"))
}

// createInfoCommand 创建 info 子命令。
func createInfoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Aliases:   []string{"i"},
		Usage:     "查看网络的派生量（掩码、广播、可用地址等）",
		ArgsUsage: "<network>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			parseOpts, err := globalParseOpts(cmd)
			if err != nil {
				return err
			}
			return cmdInfo(ctx, cmd.Root().Writer, cmd.Args().Slice(), parseOpts)
		},
	}
}

// subnetConfig subnet 子命令的展示选项。
type subnetConfig struct {
	limit int    // 输出条数上限，0 表示不限制
	index string // 非空时仅输出指定下标的子网
}

// createSubnetCommand 创建 subnet 子命令。
func createSubnetCommand() *cli.Command {
	return &cli.Command{
		Name:      "subnet",
		Aliases:   []string{"s"},
		Usage:     "将网络划分为指定前缀长度的子网",
		ArgsUsage: "<network> <newlen>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "限制输出数量 (0 表示不限制)",
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "仅输出指定下标的子网（十进制，支持大数）",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			parseOpts, err := globalParseOpts(cmd)
			if err != nil {
				return err
			}
			cfg := subnetConfig{
				limit: cmd.Int("limit"),
				index: cmd.String("index"),
			}
			return cmdSubnet(ctx, cmd.Root().Writer, cmd.Args().Slice(), cfg, parseOpts)
		},
	}
}

// supernetConfig supernet 子命令的合并策略选项。
type supernetConfig struct {
	exact bool // 精确聚合（Aggregate）
	cover bool // 单块覆盖（Cover）
}

// createSupernetCommand 创建 supernet 子命令。
func createSupernetCommand() *cli.Command {
	return &cli.Command{
		Name:      "supernet",
		Aliases:   []string{"up"},
		Usage:     "合并网络为超网",
		ArgsUsage: "<network>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "exact",
				Aliases: []string{"e"},
				Usage:   "精确聚合（结果覆盖与输入完全相同的地址集合）",
			},
			&cli.BoolFlag{
				Name:    "cover",
				Aliases: []string{"c"},
				Usage:   "单块覆盖（返回包含全部输入的最小网络）",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			parseOpts, err := globalParseOpts(cmd)
			if err != nil {
				return err
			}
			cfg := supernetConfig{
				exact: cmd.Bool("exact"),
				cover: cmd.Bool("cover"),
			}
			return cmdSupernet(ctx, cmd.Root().Writer, cmd.Args().Slice(), cfg, parseOpts)
		},
	}
}

// hostsConfig hosts 子命令的枚举选项。
type hostsConfig struct {
	filter    string // 地址类别
	limit     int    // 输出条数上限，0 表示不限制
	countOnly bool   // 仅输出数量
}

// createHostsCommand 创建 hosts 子命令。
func createHostsCommand() *cli.Command {
	return &cli.Command{
		Name:      "hosts",
		Aliases:   []string{"ls"},
		Usage:     "枚举网络内的地址",
		ArgsUsage: "<network>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "地址类别 (all/usable/unusable/broadcast/network)",
				Value:   "usable",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "限制输出数量 (0 表示不限制)",
			},
			&cli.BoolFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "仅输出地址数量",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			parseOpts, err := globalParseOpts(cmd)
			if err != nil {
				return err
			}
			cfg := hostsConfig{
				filter:    cmd.String("filter"),
				limit:     cmd.Int("limit"),
				countOnly: cmd.Bool("count"),
			}
			return cmdHosts(ctx, cmd.Root().Writer, cmd.Args().Slice(), cfg, parseOpts)
		},
	}
}

// cmdInfo 打印网络的派生量诊断文本。
func cmdInfo(ctx context.Context, out io.Writer, args []string, parseOpts []xcidr.ParseOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(args) == 0 {
		return &usageError{msg: "info 命令需要一个网络参数"}
	}
	if len(args) > 1 {
		return &usageError{msg: "info 命令只接受一个网络参数"}
	}

	n, err := xcidr.Parse(args[0], parseOpts...)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的网络 %q: %v", args[0], err)}
	}

	fmt.Fprintln(out, n.Describe())
	return nil
}

// cmdSubnet 划分子网并按行输出。
// --index 指定时仅输出单个子网，否则顺序列出（受 --limit 约束）。
func cmdSubnet(ctx context.Context, out io.Writer, args []string, cfg subnetConfig, parseOpts []xcidr.ParseOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(args) != 2 {
		return &usageError{msg: "subnet 命令需要网络和目标前缀长度两个参数"}
	}
	if cfg.limit < 0 {
		return &usageError{msg: fmt.Sprintf("--limit 不能为负数: %d", cfg.limit)}
	}

	n, err := xcidr.Parse(args[0], parseOpts...)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的网络 %q: %v", args[0], err)}
	}
	newLen, err := strconv.Atoi(args[1])
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的前缀长度 %q", args[1])}
	}

	r, err := n.Subnet(newLen)
	if err != nil {
		return err
	}

	if cfg.index != "" {
		idx, ok := new(big.Int).SetString(cfg.index, 10)
		if !ok {
			return &usageError{msg: fmt.Sprintf("无效的子网下标 %q", cfg.index)}
		}
		child, err := r.At(idx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, child)
		return nil
	}

	printed := 0
	for child := range r.All() {
		if cfg.limit > 0 && printed >= cfg.limit {
			break
		}
		if printed%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, child)
		printed++
	}
	return nil
}

// cmdSupernet 合并网络并按行输出。
// 默认贪心合并（SupernetAll），--exact 切换为精确聚合，--cover 返回单个覆盖块。
func cmdSupernet(ctx context.Context, out io.Writer, args []string, cfg supernetConfig, parseOpts []xcidr.ParseOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(args) == 0 {
		return &usageError{msg: "supernet 命令需要至少一个网络参数"}
	}
	if cfg.exact && cfg.cover {
		return &usageError{msg: "--exact 与 --cover 不能同时使用"}
	}

	nets, err := xcidr.ParseAll(args, parseOpts...)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的网络参数: %v", err)}
	}

	switch {
	case cfg.cover:
		covering, err := xcidr.Cover(nets...)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, covering)
	case cfg.exact:
		merged, err := xcidr.Aggregate(nets)
		if err != nil {
			return err
		}
		for _, m := range merged {
			fmt.Fprintln(out, m)
		}
	default:
		for _, m := range xcidr.SupernetAll(nets) {
			fmt.Fprintln(out, m)
		}
	}
	return nil
}

// cmdHosts 枚举网络内符合过滤条件的地址。
// 序列构造与计数都是解析式的，--count 对任意规模的网络都即时返回。
func cmdHosts(ctx context.Context, out io.Writer, args []string, cfg hostsConfig, parseOpts []xcidr.ParseOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(args) == 0 {
		return &usageError{msg: "hosts 命令需要一个网络参数"}
	}
	if len(args) > 1 {
		return &usageError{msg: "hosts 命令只接受一个网络参数"}
	}
	if cfg.limit < 0 {
		return &usageError{msg: fmt.Sprintf("--limit 不能为负数: %d", cfg.limit)}
	}

	filter, err := xcidr.ParseHostFilter(cfg.filter)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的过滤器 %q (可选: all/usable/unusable/broadcast/network)", cfg.filter)}
	}

	n, err := xcidr.Parse(args[0], parseOpts...)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的网络 %q: %v", args[0], err)}
	}

	hosts, err := n.Hosts(filter)
	if err != nil {
		return err
	}

	if cfg.countOnly {
		fmt.Fprintln(out, hosts.Count())
		return nil
	}

	printed := 0
	for addr := range hosts.All() {
		if cfg.limit > 0 && printed >= cfg.limit {
			break
		}
		if printed%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, addr)
		printed++
	}
	return nil
}
