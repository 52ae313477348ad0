// xcidrctl 是 CIDR 网络计算命令行工具。
//
// 用法:
//
//	xcidrctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-z, --sanitize  解析前清理输入中的包裹字符与空白
//	-g, --guess     裸地址的前缀长度推断值 (0 表示按传统分类推断)
//
// 命令:
//
//	info <network>             查看网络的派生量（掩码、广播、可用地址等）
//	subnet <network> <newlen>  将网络划分为指定前缀长度的子网
//	supernet <network>...      合并网络为超网
//	hosts <network>            枚举网络内的地址
//	plan check <file>          校验地址规划文件
//	plan watch <file>          监视地址规划文件并在变更时重载
//	help                       显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败（计算失败、规划文件非法、监视失败等）
//	2: 参数错误（无效网络、缺少必需参数、未知命令等）
//
// 示例:
//
//	xcidrctl info 192.168.168.100/24               # 查看网络详情
//	xcidrctl -z info "ip=10.0.0.1/24;"             # 清理包裹字符后解析
//	xcidrctl -g 16 info 172.16.0.0                 # 裸地址补全为 /16
//	xcidrctl subnet 10.0.0.0/8 9                   # 划分为两个 /9
//	xcidrctl subnet 10.0.0.0/8 24 --limit 5        # 仅列出前 5 个 /24
//	xcidrctl supernet 192.168.0.0/24 192.168.1.0/24   # 合并为 /23
//	xcidrctl hosts 10.0.2.0/24 --filter usable     # 枚举可用主机
//	xcidrctl plan check deploy/plan.yaml --strict  # 校验并拒绝重叠地址池
//	xcidrctl plan watch deploy/plan.yaml --log-file /var/log/xcidrctl.log
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xcidrctl",
		Usage:   "CIDR 网络计算命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "sanitize",
				Aliases: []string{"z"},
				Usage:   "解析前清理输入中的包裹字符与空白",
			},
			&cli.IntFlag{
				Name:    "guess",
				Aliases: []string{"g"},
				Usage:   "裸地址的前缀长度推断值 (0 表示按传统分类推断)",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		Authors: []any{
			"IPKit Team",
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// ExitCoder 错误（如未知命令）的消息需在此输出，
			// 替代 HandleExitCoder 的默认 os.Exit 行为。
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
		Description: `xcidrctl 围绕不可变的网络值类型提供子网划分、超网合并、
地址枚举与地址规划文件校验能力。

全局选项 --sanitize/--guess 作用于所有解析网络输入的命令，
包括规划文件中的 cidr 字段。

计算命令:
  info <network>             查看网络派生量（掩码、通配符、广播、可用区间）
  subnet <network> <newlen>  划分子网
    --limit, -l              限制输出数量
    --index, -i              仅输出指定下标的子网（十进制，支持大数）
  supernet <network>...      贪心合并相邻网络
    --exact, -e              精确聚合（结果覆盖与输入完全相同的地址集合）
    --cover, -c              单块覆盖（返回包含全部输入的最小网络）
  hosts <network>            枚举地址
    --filter, -f             地址类别 (all/usable/unusable/broadcast/network)
    --limit, -l              限制输出数量
    --count, -n              仅输出地址数量

规划命令:
  plan check <file>          校验规划文件并报告地址池
    --strict                 存在重叠地址池时返回退出码 1
  plan watch <file>          监视规划文件并在变更时重载
    --debounce, -d           文件事件去抖间隔
    --log-file               日志输出文件（按大小轮转），缺省输出到 stderr
    --log-format             日志格式 (text/json)`,
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 设置信号处理
	setupSignalHandler(ctx, cancel)

	if err := app.Run(ctx, os.Args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		// CLI 框架产生的参数错误（如未知 flag、未知命令）也返回退出码 2，
		// 与文档契约"参数错误 → 退出码 2"保持一致。
		if isCLIUsageError(err) {
			// ExitErrHandler 或 flag 解析器已向 stderr 输出错误详情，此处仅设置退出码
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}
