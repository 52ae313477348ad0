package xcidr

import "net/netip"

// Family 表示网络的地址族。
type Family uint8

const (
	// FamilyNone 表示无效或未知的地址族。
	FamilyNone Family = 0
	// FamilyV4 表示 IPv4。
	FamilyV4 Family = 4
	// FamilyV6 表示 IPv6。
	FamilyV6 Family = 6
)

// String 返回地址族的字符串表示。
func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "IPv4"
	case FamilyV6:
		return "IPv6"
	default:
		return "unknown"
	}
}

// Bits 返回地址族的位宽（IPv4 为 32，IPv6 为 128）。
// FamilyNone 返回 0。
func (f Family) Bits() int {
	switch f {
	case FamilyV4:
		return 32
	case FamilyV6:
		return 128
	default:
		return 0
	}
}

// IsValid 报告 f 是否为 FamilyV4 或 FamilyV6。
func (f Family) IsValid() bool {
	return f == FamilyV4 || f == FamilyV6
}

// AddrFamily 返回 addr 的地址族（FamilyV4 或 FamilyV6）。
// IPv4-mapped IPv6 地址视为 FamilyV4。
// 无效地址返回 FamilyNone。
func AddrFamily(addr netip.Addr) Family {
	if addr.Is4() || addr.Is4In6() {
		return FamilyV4
	}
	if addr.IsValid() {
		return FamilyV6
	}
	return FamilyNone
}
