package xcidr

import (
	"fmt"
	"math/bits"
	"net/netip"
	"slices"

	"go4.org/netipx"
)

// Supernet 把两个网络合并为一个超网。合并规则：
//   - 一方完整包含另一方时直接返回包含方（等价网络合并为自身）；
//   - 否则要求两者前缀长度相等且在地址空间中紧邻
//     （前者的广播地址加一等于后者的基址），不满足返回 [ErrNotAdjacent]；
//   - 相邻的等长网络还必须对齐到短一位的前缀边界：
//     192.168.1.0/24 与 192.168.2.0/24 相邻但 /23 边界不对齐，
//     返回 [ErrMisalignedBoundary]。
//
// 参数顺序无关。地址族不一致返回 [ErrMixedFamily]。
func Supernet(a, b Network) (Network, error) {
	a, b = a.norm(), b.norm()
	if a.fam != b.fam {
		return Network{}, fmt.Errorf("%w: %s and %s", ErrMixedFamily, a, b)
	}
	if a.ContainsNetwork(b) {
		return a, nil
	}
	if b.ContainsNetwork(a) {
		return b, nil
	}
	if a.bits != b.bits {
		return Network{}, fmt.Errorf("%w: prefix lengths differ: /%d and /%d", ErrNotAdjacent, a.bits, b.bits)
	}

	first, last := a, b
	if first.base.Compare(last.base) > 0 {
		first, last = last, first
	}
	next := first.Broadcast().Next()
	if !next.IsValid() || next != last.base {
		return Network{}, fmt.Errorf("%w: %s and %s", ErrNotAdjacent, first, last)
	}

	// 互不包含的两个网络前缀长度必 ≥ 1，缩短一位安全
	merged, err := newNetwork(first.base, int(first.bits)-1)
	if err != nil {
		return Network{}, err
	}
	if merged.base != first.base {
		return Network{}, fmt.Errorf("%w: %s and %s", ErrMisalignedBoundary, first, last)
	}
	return merged, nil
}

// SupernetAll 对网络列表做贪心合并：反复把可合并的相邻网络
// 折叠为超网，直到一轮遍历不再减少元素个数为止。
// 每轮先按 (地址族, 基址, 前缀长度) 排序，再顺序尝试与栈顶合并。
//
// 输入可混合 IPv4/IPv6：跨族的网络互不合并，各自归并后一起返回。
// 结果按 [Network.Compare] 有序。空切片或 nil 返回 nil。
//
// 已知限制：贪心策略的结果依赖排序后的合并次序，
// 对于能合并的输入它总能收敛到不动点，但不动点不保证是
// 数学上最小的覆盖集合。需要可证最小覆盖时使用 [Aggregate]。
func SupernetAll(nets []Network) []Network {
	if len(nets) == 0 {
		return nil
	}
	work := make([]Network, len(nets))
	for i, n := range nets {
		work[i] = n.norm()
	}
	for {
		slices.SortFunc(work, Network.Compare)
		next := supernetPass(work)
		if len(next) == len(work) {
			return next
		}
		work = next
	}
}

// supernetPass 对已排序的列表做一轮栈式合并。
func supernetPass(sorted []Network) []Network {
	out := make([]Network, 0, len(sorted))
	for _, n := range sorted {
		if len(out) > 0 {
			if merged, err := Supernet(out[len(out)-1], n); err == nil {
				out[len(out)-1] = merged
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// Aggregate 把网络列表归并为覆盖完全相同地址集合的最小 CIDR 列表。
// 与 [SupernetAll] 的贪心策略不同，Aggregate 基于 [netipx.IPSetBuilder]
// 的区间并集运算，结果是可证最小的精确覆盖。
//
// 输入可混合 IPv4/IPv6，结果按基址升序（IPv4 在前）。
// 空切片或 nil 返回 (nil, nil)。
func Aggregate(nets []Network) ([]Network, error) {
	if len(nets) == 0 {
		return nil, nil
	}
	var b netipx.IPSetBuilder
	for _, n := range nets {
		b.AddPrefix(n.norm().Prefix())
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("build IPSet: %w", err)
	}
	prefixes := set.Prefixes()
	out := make([]Network, 0, len(prefixes))
	for _, p := range prefixes {
		n, err := FromPrefix(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Cover 返回能覆盖所有输入网络的最小单个网络。
// 与 [Aggregate] 不同，结果是一个网络而非列表，
// 因此通常会覆盖超出输入并集的地址（除非输入本身恰好构成一个 CIDR 块）。
//
//	Cover(10.0.0.0/24, 10.0.1.0/24)  → 10.0.0.0/23
//	Cover(10.0.0.0/24, 10.0.2.0/24)  → 10.0.0.0/22
//
// 空参数返回 [ErrEmptyInput]；地址族不一致返回 [ErrMixedFamily]。
func Cover(nets ...Network) (Network, error) {
	if len(nets) == 0 {
		return Network{}, ErrEmptyInput
	}
	first := nets[0].norm()
	fam := first.fam
	lo, hi := first.base, first.Broadcast()
	for _, n := range nets[1:] {
		n = n.norm()
		if n.fam != fam {
			return Network{}, fmt.Errorf("%w: %s and %s", ErrMixedFamily, first, n)
		}
		if n.base.Compare(lo) < 0 {
			lo = n.base
		}
		if b := n.Broadcast(); b.Compare(hi) > 0 {
			hi = b
		}
	}
	// 覆盖 [lo, hi] 的最小前缀长度等于两端点的公共前缀位数
	return newNetwork(lo, commonPrefixLen(lo, hi, fam))
}

// commonPrefixLen 返回两个同族地址的公共前缀位数。
func commonPrefixLen(a, b netip.Addr, fam Family) int {
	if fam == FamilyV4 {
		au, _ := AddrToUint32(a)
		bu, _ := AddrToUint32(b)
		return bits.LeadingZeros32(au ^ bu)
	}
	ab, bb := a.As16(), b.As16()
	n := 0
	for i := 0; i < 16; i++ {
		x := ab[i] ^ bb[i]
		if x != 0 {
			return n + bits.LeadingZeros8(x)
		}
		n += 8
	}
	return n
}
