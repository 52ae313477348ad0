package xcidr

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"
	"net/netip"

	"go4.org/netipx"
)

// maxUint128 是 IPv6 地址空间的最大值（2^128 - 1）。
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Netmask 返回 prefixLen 在地址族 fam 下对应的子网掩码地址。
// 例如 Netmask(24, FamilyV4) 返回 255.255.255.0。
// prefixLen 为 0 时返回全零掩码。
// 前缀长度超出地址族位宽返回 [ErrPrefixOutOfRange]。
func Netmask(prefixLen int, fam Family) (netip.Addr, error) {
	if err := checkPrefixLen(prefixLen, fam); err != nil {
		return netip.Addr{}, err
	}
	if fam == FamilyV4 {
		return AddrFromUint32(v4Mask(prefixLen)), nil
	}
	m, err := NetmaskBig(prefixLen, fam)
	if err != nil {
		return netip.Addr{}, err
	}
	return AddrFromBig(m, FamilyV6)
}

// NetmaskBig 返回 prefixLen 对应掩码的无界整数表示。
// 与 [Netmask] 取值一致，用于需要直接参与 big.Int 运算的场景。
func NetmaskBig(prefixLen int, fam Family) (*big.Int, error) {
	if err := checkPrefixLen(prefixLen, fam); err != nil {
		return nil, err
	}
	// mask = (2^prefixLen - 1) << (bits - prefixLen)
	m := new(big.Int).Lsh(big.NewInt(1), uint(prefixLen))
	m.Sub(m, big.NewInt(1))
	m.Lsh(m, uint(fam.Bits()-prefixLen))
	return m, nil
}

// PrefixLenFromNetmask 从子网掩码地址推导前缀长度。
// 例如 255.255.255.0 推导为 24。
// 非连续掩码（如 255.0.255.0）返回 [ErrInvalidNetmask]。
//
// 连续性判定：取反后的掩码加一必须清空其全部位
// （inverted & (inverted+1) == 0）。合法掩码的前缀长度
// 等于掩码中置位的个数。
func PrefixLenFromNetmask(mask netip.Addr) (int, error) {
	switch AddrFamily(mask) {
	case FamilyV4:
		m, _ := AddrToUint32(mask)
		inverted := ^m
		if inverted&(inverted+1) != 0 {
			return 0, fmt.Errorf("%w: non-contiguous mask: %s", ErrInvalidNetmask, mask)
		}
		return bits.OnesCount32(m), nil
	case FamilyV6:
		m := AddrToBig(mask)
		inverted := new(big.Int).Xor(m, maxUint128)
		probe := new(big.Int).Add(inverted, big.NewInt(1))
		if probe.And(probe, inverted).Sign() != 0 {
			return 0, fmt.Errorf("%w: non-contiguous mask: %s", ErrInvalidNetmask, mask)
		}
		// 连续掩码的主机位数等于反掩码的位长
		return 128 - inverted.BitLen(), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidNetmask, mask)
	}
}

// IsValidNetmask 报告 mask 是否为合法的连续子网掩码。
// 这是 [PrefixLenFromNetmask] 的非报错形式。
func IsValidNetmask(mask netip.Addr) bool {
	_, err := PrefixLenFromNetmask(mask)
	return err == nil
}

// Wildcard 返回 prefixLen 对应的反掩码（wildcard mask）。
// 反掩码是子网掩码在地址族位宽内的按位取反，
// 例如 /24 的反掩码为 0.0.0.255。
func Wildcard(prefixLen int, fam Family) (netip.Addr, error) {
	mask, err := Netmask(prefixLen, fam)
	if err != nil {
		return netip.Addr{}, err
	}
	if fam == FamilyV4 {
		b := mask.As4()
		for i := range b {
			b[i] = ^b[i]
		}
		return netip.AddrFrom4(b), nil
	}
	b := mask.As16()
	for i := range b {
		b[i] = ^b[i]
	}
	return netip.AddrFrom16(b), nil
}

// BitsSet 返回地址值中置位（bit 为 1）的个数。
// 无效地址返回 0。
func BitsSet(addr netip.Addr) int {
	switch AddrFamily(addr) {
	case FamilyV4:
		v, _ := AddrToUint32(addr)
		return bits.OnesCount32(v)
	case FamilyV6:
		b := addr.As16()
		hi := binary.BigEndian.Uint64(b[:8])
		lo := binary.BigEndian.Uint64(b[8:])
		return bits.OnesCount64(hi) + bits.OnesCount64(lo)
	default:
		return 0
	}
}

// TotalCount 返回前缀覆盖的地址总数（2^(位宽-前缀长度)）。
// 参数非法返回 nil。
func TotalCount(prefixLen int, fam Family) *big.Int {
	if checkPrefixLen(prefixLen, fam) != nil {
		return nil
	}
	return new(big.Int).Lsh(big.NewInt(1), uint(fam.Bits()-prefixLen))
}

// UsableCount 返回前缀覆盖的可用主机地址数。
// IPv4 扣除网络地址与广播地址（/31、/32 为 0）；
// IPv6 没有保留的网络/广播地址，可用数等于总数。
// 参数非法返回 nil。
func UsableCount(prefixLen int, fam Family) *big.Int {
	total := TotalCount(prefixLen, fam)
	if total == nil {
		return nil
	}
	if fam == FamilyV6 {
		return total
	}
	if prefixLen > 30 {
		return new(big.Int)
	}
	return total.Sub(total, big.NewInt(2))
}

// checkPrefixLen 校验前缀长度是否落在地址族的合法区间内。
func checkPrefixLen(prefixLen int, fam Family) error {
	if !fam.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidFamily, fam)
	}
	if prefixLen < 0 || prefixLen > fam.Bits() {
		return fmt.Errorf("%w: /%d for %s", ErrPrefixOutOfRange, prefixLen, fam)
	}
	return nil
}

// v4Mask 返回 IPv4 前缀长度对应的掩码值。
// 调用前必须确保 0 <= prefixLen <= 32。
func v4Mask(prefixLen int) uint32 {
	return ^uint32(0) << (32 - prefixLen)
}

// lastAddrOf 返回网络的最后一个地址（基址与反掩码按位或）。
// IPv4 使用 uint32 快速路径，IPv6 依赖 netipx 的前缀区间端点。
// 调用前必须确保 base 已按 prefixLen 掩码对齐。
func lastAddrOf(base netip.Addr, prefixLen int) netip.Addr {
	if base.Is4() {
		v, _ := AddrToUint32(base)
		return AddrFromUint32(v | ^v4Mask(prefixLen))
	}
	return netipx.RangeOfPrefix(netip.PrefixFrom(base, prefixLen)).To()
}
