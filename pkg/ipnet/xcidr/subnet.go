package xcidr

import (
	"fmt"
	"iter"
	"math/big"
)

// Subnet 把网络划分为前缀长度为 newPrefixLen 的等大小子网序列。
// newPrefixLen 必须不小于当前前缀长度且不超过地址族位宽，
// 否则返回 [ErrInvalidSplit]。
//
// 返回的 [NetworkRange] 是惰性序列：构造时不枚举任何子网，
// IPv6 下 2^k 规模的划分也只持有迭代状态。
// newPrefixLen 等于当前前缀长度时序列只含网络自身。
func (n Network) Subnet(newPrefixLen int) (NetworkRange, error) {
	n = n.norm()
	if newPrefixLen < int(n.bits) || newPrefixLen > n.fam.Bits() {
		return NetworkRange{}, fmt.Errorf("%w: /%d cannot be split into /%d", ErrInvalidSplit, n.bits, newPrefixLen)
	}
	return NetworkRange{parent: n, newLen: uint8(newPrefixLen)}, nil
}

// NetworkRange 是一次子网划分产生的惰性子网序列。
// 序列恰好包含 2^(newLen-parentLen) 个子网，按基址升序排列；
// 第 i 个子网的基址为 父基址 + i·2^(位宽-newLen)。
//
// NetworkRange 是不可变值，可安全复制与并发使用；
// 由 [Network.Subnet] 构造。零值表示 0.0.0.0/0 到 /0 的划分（单元素）。
type NetworkRange struct {
	parent Network
	newLen uint8
}

// Parent 返回被划分的父网络。
func (r NetworkRange) Parent() Network {
	return r.parent.norm()
}

// PrefixLen 返回子网的前缀长度。
func (r NetworkRange) PrefixLen() int {
	return int(r.newLen)
}

// Count 返回序列中的子网个数（2^(newLen-parentLen)）。
// 结果解析式计算，不发生枚举。
func (r NetworkRange) Count() *big.Int {
	p := r.parent.norm()
	return new(big.Int).Lsh(big.NewInt(1), uint(int(r.newLen)-int(p.bits)))
}

// CountUint64 返回子网个数的 uint64 快速版本。
// 个数超出 uint64 范围（划分跨度 ≥ 64 位）返回 (0, false)。
func (r NetworkRange) CountUint64() (uint64, bool) {
	p := r.parent.norm()
	diff := int(r.newLen) - int(p.bits)
	if diff >= 64 {
		return 0, false
	}
	return uint64(1) << diff, true
}

// At 返回序列中下标为 i 的子网，不枚举中间元素。
// i 为 nil、负数或不小于 [NetworkRange.Count] 时返回 [ErrIndexOutOfRange]。
func (r NetworkRange) At(i *big.Int) (Network, error) {
	p := r.parent.norm()
	if i == nil || i.Sign() < 0 || i.Cmp(r.Count()) >= 0 {
		return Network{}, fmt.Errorf("%w: subnet index %v of %v", ErrIndexOutOfRange, i, r.Count())
	}
	shift := uint(p.fam.Bits() - int(r.newLen))
	if p.fam == FamilyV4 {
		// IPv4 快速路径：合法下标经移位后必落在 32 位内
		base, _ := AddrToUint32(p.base)
		off := i.Uint64() << shift
		return newNetwork(addrFrom4Bytes(uint64(base)+off), int(r.newLen))
	}
	off := new(big.Int).Lsh(i, shift)
	addr, err := AddrAddBig(p.base, off)
	if err != nil {
		return Network{}, err
	}
	return newNetwork(addr, int(r.newLen))
}

// AtUint64 是 [NetworkRange.At] 的 uint64 便捷形式。
func (r NetworkRange) AtUint64(i uint64) (Network, error) {
	return r.At(new(big.Int).SetUint64(i))
}

// First 返回序列中的第一个子网（基址与父网络相同）。
func (r NetworkRange) First() Network {
	// 下标 0 恒有效：Subnet 保证序列至少含一个子网
	n, _ := r.AtUint64(0)
	return n
}

// Last 返回序列中的最后一个子网。
func (r NetworkRange) Last() Network {
	i := r.Count()
	i.Sub(i, big.NewInt(1))
	n, _ := r.At(i)
	return n
}

// All 返回子网的惰性迭代序列，可用于 for-range。
// 每次调用都从第一个子网重新开始；中途 break 不产生额外代价。
//
//	subnets, _ := net.Subnet(26)
//	for child := range subnets.All() {
//	    fmt.Println(child)
//	}
func (r NetworkRange) All() iter.Seq[Network] {
	return func(yield func(Network) bool) {
		p := r.parent.norm()
		base := p.base
		count := r.Count()
		one := big.NewInt(1)
		for i := new(big.Int); i.Cmp(count) < 0; i.Add(i, one) {
			child, err := newNetwork(base, int(r.newLen))
			if err != nil {
				return
			}
			if !yield(child) {
				return
			}
			next := child.Broadcast().Next()
			if !next.IsValid() {
				// 已到地址空间末端
				return
			}
			base = next
		}
	}
}
