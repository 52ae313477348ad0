package xcidr

import (
	"fmt"
	"iter"
	"math/big"
	"net/netip"
	"strings"
)

// HostFilter 选择 [Network.Hosts] 枚举哪一类地址。
type HostFilter uint8

const (
	// FilterAll 枚举网络覆盖的全部地址。
	FilterAll HostFilter = iota
	// FilterUsable 枚举可用主机地址。
	// IPv4 为 (基址, 广播) 开区间（/31、/32 为空）；IPv6 为全部地址。
	FilterUsable
	// FilterUnusable 枚举不可用地址（IPv4 的网络地址与广播地址）。
	// IPv6 没有不可用地址，序列为空。
	FilterUnusable
	// FilterBroadcast 仅枚举广播地址。IPv6 序列为空。
	FilterBroadcast
	// FilterNetwork 仅枚举网络基址。
	FilterNetwork
)

// String 返回过滤器的字符串表示。
func (f HostFilter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterUsable:
		return "usable"
	case FilterUnusable:
		return "unusable"
	case FilterBroadcast:
		return "broadcast"
	case FilterNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ParseHostFilter 从字符串解析过滤器（大小写不敏感）。
// 未知取值返回 [ErrInvalidHostFilter]。
func ParseHostFilter(s string) (HostFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return FilterAll, nil
	case "usable":
		return FilterUsable, nil
	case "unusable":
		return FilterUnusable, nil
	case "broadcast":
		return FilterBroadcast, nil
	case "network":
		return FilterNetwork, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidHostFilter, s)
	}
}

// Hosts 返回网络中符合过滤条件的地址惰性序列。
// 序列规模解析式计算，构造与计数都不发生地址枚举，
// IPv6 /0 这类 2^128 规模的网络也可安全调用。
// 未知过滤器取值返回 [ErrInvalidHostFilter]。
func (n Network) Hosts(f HostFilter) (AddrRange, error) {
	if f > FilterNetwork {
		return AddrRange{}, fmt.Errorf("%w: %d", ErrInvalidHostFilter, f)
	}
	return AddrRange{net: n.norm(), filter: f}, nil
}

// AddrRange 是网络内一类地址的惰性序列，由 [Network.Hosts] 构造。
// 不可变值，可安全复制与并发使用。
// 零值表示 0.0.0.0/0 的全地址序列。
type AddrRange struct {
	net    Network
	filter HostFilter
}

// Network 返回序列所属的网络。
func (r AddrRange) Network() Network {
	return r.net.norm()
}

// Filter 返回序列使用的过滤器。
func (r AddrRange) Filter() HostFilter {
	return r.filter
}

// Count 返回序列中的地址个数，解析式计算。
func (r AddrRange) Count() *big.Int {
	n := r.net.norm()
	switch r.filter {
	case FilterAll:
		return n.TotalCount()
	case FilterUsable:
		return n.UsableCount()
	case FilterUnusable:
		total := n.TotalCount()
		return total.Sub(total, n.UsableCount())
	case FilterBroadcast:
		if n.fam == FamilyV4 {
			return big.NewInt(1)
		}
		return new(big.Int)
	case FilterNetwork:
		return big.NewInt(1)
	default:
		return new(big.Int)
	}
}

// CountUint64 返回地址个数的 uint64 快速版本。
// 个数超出 uint64 范围（如 IPv6 大前缀）返回 (0, false)。
func (r AddrRange) CountUint64() (uint64, bool) {
	c := r.Count()
	if !c.IsUint64() {
		return 0, false
	}
	return c.Uint64(), true
}

// At 返回序列中下标为 i 的地址，不枚举中间元素。
// i 为 nil、负数或不小于 [AddrRange.Count] 时返回 [ErrIndexOutOfRange]。
func (r AddrRange) At(i *big.Int) (netip.Addr, error) {
	if i == nil || i.Sign() < 0 || i.Cmp(r.Count()) >= 0 {
		return netip.Addr{}, fmt.Errorf("%w: address index %v of %v", ErrIndexOutOfRange, i, r.Count())
	}
	n := r.net.norm()
	if r.splitUnusable() {
		if i.Sign() == 0 {
			return n.base, nil
		}
		// 越界检查后仅剩下标 1
		return n.Broadcast(), nil
	}
	first, _, ok := r.window()
	if !ok {
		// Count 为 0 的空窗口已被越界检查拦截
		return netip.Addr{}, fmt.Errorf("%w: empty window", ErrIndexOutOfRange)
	}
	return AddrAddBig(first, i)
}

// AtUint64 是 [AddrRange.At] 的 uint64 便捷形式。
func (r AddrRange) AtUint64(i uint64) (netip.Addr, error) {
	return r.At(new(big.Int).SetUint64(i))
}

// All 返回地址的惰性迭代序列，可用于 for-range。
// 每次调用都从第一个地址重新开始；中途 break 不产生额外代价。
//
//	hosts, _ := net.Hosts(xcidr.FilterUsable)
//	for addr := range hosts.All() {
//	    fmt.Println(addr)
//	}
func (r AddrRange) All() iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		n := r.net.norm()
		if r.splitUnusable() {
			if !yield(n.base) {
				return
			}
			yield(n.Broadcast())
			return
		}
		first, last, ok := r.window()
		if !ok {
			return
		}
		for a := first; a.IsValid(); a = a.Next() {
			if !yield(a) {
				return
			}
			if a == last {
				return
			}
		}
	}
}

// splitUnusable 报告过滤窗口是否为不连续的 {基址, 广播} 两点集。
// 仅 IPv4 /30 及更短前缀的 FilterUnusable 属于此情形；
// /31、/32 的不可用地址本身连续，走窗口路径。
func (r AddrRange) splitUnusable() bool {
	n := r.net.norm()
	return r.filter == FilterUnusable && n.fam == FamilyV4 && n.bits <= 30
}

// window 返回连续过滤窗口的闭区间端点；ok=false 表示序列为空。
func (r AddrRange) window() (first, last netip.Addr, ok bool) {
	n := r.net.norm()
	switch r.filter {
	case FilterAll:
		return n.base, n.Broadcast(), true
	case FilterUsable:
		f, okF := n.FirstUsable()
		l, okL := n.LastUsable()
		return f, l, okF && okL
	case FilterUnusable:
		if n.fam == FamilyV4 && n.bits > 30 {
			// /31、/32：所有地址均不可用
			return n.base, n.Broadcast(), true
		}
		return netip.Addr{}, netip.Addr{}, false
	case FilterBroadcast:
		if n.fam == FamilyV4 {
			b := n.Broadcast()
			return b, b, true
		}
		return netip.Addr{}, netip.Addr{}, false
	case FilterNetwork:
		return n.base, n.base, true
	default:
		return netip.Addr{}, netip.Addr{}, false
	}
}
