package xcidr

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// parseOptions 聚合 [Parse] 的可选配置。
type parseOptions struct {
	guesser  PrefixGuesser
	sanitize bool
}

// ParseOption 配置 [Parse] 的解析行为。
type ParseOption func(*parseOptions)

// WithGuesser 替换单地址输入的前缀长度推断策略。
// 默认为 [ClassfulGuesser]。传入 nil 不生效。
func WithGuesser(g PrefixGuesser) ParseOption {
	return func(o *parseOptions) {
		if g != nil {
			o.guesser = g
		}
	}
}

// WithSanitize 在解析前先对输入做 [Sanitize] 清洗。
// 用于容忍来自日志、表格等场景的脏输入
// （如 "10.0.0.1 - 255.255.255.0" 或包裹引号的地址）。
func WithSanitize() ParseOption {
	return func(o *parseOptions) {
		o.sanitize = true
	}
}

// Parse 将字符串解析为规范化的 [Network]。支持 3 种形式：
//   - CIDR: "192.168.1.0/24" 或 "192.168.1.0 24"（斜杠与空格等价）
//   - 掩码: "192.168.1.0 255.255.255.0"
//   - 单地址: "192.168.1.1"，前缀长度由推断策略给出（见 [ClassfulGuesser]）
//
// 基址的主机位会被掩码清零："192.168.168.100/24" 解析为 192.168.168.0/24。
// 输入会自动去除首尾空白字符；空输入返回 [ErrEmptyInput]。
//
// 设计决策: 拒绝包含 IPv6 zone ID 的输入（如 fe80::1%eth0）。
// 掩码运算会静默丢弃 zone 信息，导致解析结果与原始输入不可逆。
// 在 IP 地址字符串中 '%' 仅用作 zone 分隔符，因此检查 '%' 即可。
func Parse(s string, opts ...ParseOption) (Network, error) {
	o := parseOptions{guesser: ClassfulGuesser{}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.sanitize {
		s = Sanitize(s)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Network{}, ErrEmptyInput
	}
	if strings.Contains(s, "%") {
		return Network{}, fmt.Errorf("%w: IPv6 zone ID is not supported: %s", ErrInvalidAddress, s)
	}

	// 统一分隔符后按空白切分：斜杠与空格在词法上等价
	hasSlash := strings.Contains(s, "/")
	tokens := strings.Fields(strings.ReplaceAll(s, "/", " "))

	switch len(tokens) {
	case 0:
		return Network{}, fmt.Errorf("%w: no address token: %q", ErrInvalidAddress, s)
	case 1:
		// 出现过斜杠却只有一个 token，说明前缀部分为空（如 "10.0.0.1/"），
		// 按格式错误处理而非静默进入推断分支。
		if hasSlash {
			return Network{}, fmt.Errorf("%w: missing prefix length: %q", ErrInvalidAddress, s)
		}
		addr, err := parseAddrToken(tokens[0])
		if err != nil {
			return Network{}, err
		}
		prefixLen, ok := o.guesser.GuessPrefixLen(addr)
		if !ok {
			return Network{}, fmt.Errorf("%w: %s", ErrUnguessablePrefix, tokens[0])
		}
		return newNetwork(addr, prefixLen)
	case 2:
		addr, err := parseAddrToken(tokens[0])
		if err != nil {
			return Network{}, err
		}
		// 第二个 token 是纯数字 ⇒ CIDR 形式；否则按掩码解析
		if prefixLen, ok := parsePrefixLenToken(tokens[1]); ok {
			// IPv4-mapped IPv6 地址归一化为纯 IPv4：IPv6 空间的前缀长度
			// （如 ::ffff:192.168.1.0/120）换算为 IPv4 长度（/24）。
			// 0-32 视为已是 IPv4 长度，33-95 由构造校验拒绝。
			if addr.Is4In6() && prefixLen >= 96 && prefixLen <= 128 {
				addr = addr.Unmap()
				prefixLen -= 96
			}
			return newNetwork(addr, prefixLen)
		}
		mask, err := netip.ParseAddr(tokens[1])
		if err != nil {
			return Network{}, fmt.Errorf("%w: %q", ErrInvalidNetmask, tokens[1])
		}
		return NewFromMask(addr, mask)
	default:
		return Network{}, fmt.Errorf("%w: too many tokens: %q", ErrInvalidAddress, s)
	}
}

// MustParse 是 [Parse] 的 panic 版本，用于输入已知合法的场景
// （如测试和包级常量初始化）。
func MustParse(s string, opts ...ParseOption) Network {
	n, err := Parse(s, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseAll 批量解析网络字符串。
// 任一条目解析失败即返回错误，并携带失败条目的下标与原文。
// 空切片或 nil 返回 (nil, nil)。
func ParseAll(strs []string, opts ...ParseOption) ([]Network, error) {
	if len(strs) == 0 {
		return nil, nil
	}
	nets := make([]Network, 0, len(strs))
	for i, s := range strs {
		n, err := Parse(s, opts...)
		if err != nil {
			return nil, fmt.Errorf("parse network [%d] %q: %w", i, s, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Sanitize 清洗网络字符串：仅保留地址字面量会用到的字符
// （十六进制数字、'.'、'/'、':' 和空白），并把连续空白压缩为单个空格。
// 例如 "10.0.0.1 - 255.255.255.0" 清洗为 "10.0.0.1 255.255.255.0"，
// "\"192.168.0.0/24\"" 清洗为 "192.168.0.0/24"。
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9',
			r >= 'a' && r <= 'f',
			r >= 'A' && r <= 'F',
			r == '.', r == '/', r == ':', r == ' ', r == '\t':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// parseAddrToken 解析地址 token，失败统一映射为 [ErrInvalidAddress]。
func parseAddrToken(tok string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(tok)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, tok, err)
	}
	return addr, nil
}

// parsePrefixLenToken 尝试把 token 解析为前缀长度数字。
// 仅接受 1-3 位纯十进制数字，不接受符号位，
// 以便与掩码形式（含 '.' 或 ':'）无歧义区分。
// 数值越界（如 "999"）留给 Network 构造时统一报 [ErrPrefixOutOfRange]。
func parsePrefixLenToken(tok string) (int, bool) {
	if len(tok) == 0 || len(tok) > 3 {
		return 0, false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}
