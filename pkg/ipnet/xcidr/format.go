package xcidr

import (
	"fmt"
	"strings"
)

// String 返回网络的规范字符串形式 "基址/前缀长度"，
// 如 "192.168.1.0/24"。与 [Parse] 构成无损往返。
func (n Network) String() string {
	return n.Prefix().String()
}

// MarshalText 实现 [encoding.TextMarshaler]，输出与 [Network.String] 一致。
// JSON/YAML 编码经由文本形式自动生效。
func (n Network) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText 实现 [encoding.TextUnmarshaler]。
// 接受 [Parse] 的默认支持形式；非规范的基址（含主机位）会被规范化。
func (n *Network) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Describe 返回网络全部派生量的多行诊断文本，面向人读输出
// （CLI、日志、调试）。机器可读序列化请使用 [Network.String]
// 或 [WireNetwork]。
//
//	Network:   192.168.168.0/24
//	Family:    IPv4
//	Netmask:   255.255.255.0
//	Wildcard:  0.0.0.255
//	Broadcast: 192.168.168.255
//	First:     192.168.168.1
//	Last:      192.168.168.254
//	Addresses: 256
//	Usable:    254
//	Class:     private
func (n Network) Describe() string {
	n = n.norm()
	var b strings.Builder
	fmt.Fprintf(&b, "Network:   %s\n", n)
	fmt.Fprintf(&b, "Family:    %s\n", n.fam)
	fmt.Fprintf(&b, "Netmask:   %s\n", n.Netmask())
	fmt.Fprintf(&b, "Wildcard:  %s\n", n.Wildcard())
	if n.fam == FamilyV4 {
		fmt.Fprintf(&b, "Broadcast: %s\n", n.Broadcast())
	} else {
		fmt.Fprintf(&b, "Last addr: %s\n", n.Broadcast())
	}
	first, okFirst := n.FirstUsable()
	last, okLast := n.LastUsable()
	if okFirst && okLast {
		fmt.Fprintf(&b, "First:     %s\n", first)
		fmt.Fprintf(&b, "Last:      %s\n", last)
	} else {
		b.WriteString("First:     -\n")
		b.WriteString("Last:      -\n")
	}
	fmt.Fprintf(&b, "Addresses: %s\n", n.TotalCount())
	fmt.Fprintf(&b, "Usable:    %s\n", n.UsableCount())
	fmt.Fprintf(&b, "Class:     %s", Classify(n))
	return b.String()
}
