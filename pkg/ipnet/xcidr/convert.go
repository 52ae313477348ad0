package xcidr

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"net/netip"
)

// AddrFromUint32 从 IPv4 的 uint32 表示创建 [netip.Addr]。
// 使用网络字节序（大端）。
func AddrFromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

// AddrToUint32 将 IPv4 地址转换为 uint32（网络字节序）。
// 非 IPv4 地址返回 (0, false)。
func AddrToUint32(addr netip.Addr) (uint32, bool) {
	if !addr.Is4() && !addr.Is4In6() {
		return 0, false
	}
	b := addr.Unmap().As4()
	return binary.BigEndian.Uint32(b[:]), true
}

// AddrFromBig 从 [*big.Int] 创建 [netip.Addr]。
// 需指定目标地址族。
// 负数或超出地址族位宽的值返回 [ErrBigIntRange]。
func AddrFromBig(v *big.Int, fam Family) (netip.Addr, error) {
	if v == nil {
		return netip.Addr{}, ErrBigIntRange
	}
	switch fam {
	case FamilyV4:
		if v.Sign() < 0 || v.BitLen() > 32 {
			return netip.Addr{}, fmt.Errorf("%w: %s for %s", ErrBigIntRange, v, fam)
		}
		// 使用字节方式构建，与 V6 路径一致，避免 uint64→uint32 类型收窄。
		var b [4]byte
		v.FillBytes(b[:])
		return netip.AddrFrom4(b), nil
	case FamilyV6:
		if v.Sign() < 0 || v.BitLen() > 128 {
			return netip.Addr{}, fmt.Errorf("%w: %s for %s", ErrBigIntRange, v, fam)
		}
		var b [16]byte
		v.FillBytes(b[:])
		return netip.AddrFrom16(b), nil
	default:
		return netip.Addr{}, ErrInvalidFamily
	}
}

// AddrToBig 将地址按大端无符号整数提升为 [*big.Int]。
// IPv4 地址提升为 32 位值，IPv6 为 128 位值。
// 无效地址返回零值 big.Int。
func AddrToBig(addr netip.Addr) *big.Int {
	if !addr.IsValid() {
		return new(big.Int)
	}
	if addr.Is4() || addr.Is4In6() {
		v, _ := AddrToUint32(addr)
		return new(big.Int).SetUint64(uint64(v))
	}
	b := addr.As16()
	return new(big.Int).SetBytes(b[:])
}

// AddrAdd 对 IP 地址进行加法运算。
// delta 可以为负数表示减法。
// 越过地址空间边界时返回 [ErrOverflow]。
//
// 对于 IPv4 地址，使用 uint64 快速路径（零分配）。
// 对于 IPv6 地址，使用 big.Int 运算。
//
// 注意：IPv4-mapped IPv6 地址（如 ::ffff:192.168.1.1）走 IPv4 快速路径，
// 返回结果为纯 IPv4 地址（如 192.168.1.2），不再是 IPv4-mapped 形式。
func AddrAdd(addr netip.Addr, delta int64) (netip.Addr, error) {
	if !addr.IsValid() {
		return netip.Addr{}, ErrInvalidAddress
	}

	// IPv4 快速路径：直接使用 uint64 运算，避免 big.Int 分配
	if addr.Is4() || addr.Is4In6() {
		v, _ := AddrToUint32(addr)
		v64 := uint64(v)
		var result uint64
		if delta >= 0 {
			// 加法：检查上溢
			d64 := uint64(delta)
			if d64 > uint64(^uint32(0))-v64 {
				return netip.Addr{}, fmt.Errorf("IPv4 address overflow (delta=%d): %w", delta, ErrOverflow)
			}
			result = v64 + d64
		} else {
			// 减法：检查下溢
			absDelta := uint64(-delta)
			if absDelta > v64 {
				return netip.Addr{}, fmt.Errorf("IPv4 address underflow (delta=%d): %w", delta, ErrOverflow)
			}
			result = v64 - absDelta
		}
		// 使用字节操作构建地址，避免 uint64->uint32 类型转换
		return addrFrom4Bytes(result), nil
	}

	// IPv6 路径：使用 big.Int
	bi := AddrToBig(addr)
	bi.Add(bi, big.NewInt(delta))

	result, err := AddrFromBig(bi, FamilyV6)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("IPv6 address overflow (delta=%d): %w: %w", delta, ErrOverflow, err)
	}
	return result, nil
}

// AddrAddBig 对 IP 地址加上任意大小的无界整数偏移。
// offset 可以为负数。越过地址空间边界时返回 [ErrOverflow]。
// 用于大步长的索引寻址（如 IPv6 子网随机访问）；
// 小步长场景请优先使用 [AddrAdd] 的 IPv4 快速路径。
func AddrAddBig(addr netip.Addr, offset *big.Int) (netip.Addr, error) {
	if !addr.IsValid() {
		return netip.Addr{}, ErrInvalidAddress
	}
	if offset == nil {
		return netip.Addr{}, ErrBigIntRange
	}
	fam := AddrFamily(addr)
	bi := AddrToBig(addr)
	bi.Add(bi, offset)
	result, err := AddrFromBig(bi, fam)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%s address overflow (offset=%s): %w: %w", fam, offset, ErrOverflow, err)
	}
	return result, nil
}

// addrFrom4Bytes 从 uint64 的低 32 位构建 IPv4 地址。
// 使用字节操作避免 uint64->uint32 类型转换（避免 gosec G115）。
func addrFrom4Bytes(v uint64) netip.Addr {
	var b [4]byte
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
	return netip.AddrFrom4(b)
}
