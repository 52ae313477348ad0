package xcidr

import "net/netip"

// PrefixGuesser 在单地址输入缺少前缀长度时推断一个默认值。
// 返回 (前缀长度, true) 表示推断成功；(0, false) 表示无法推断，
// 此时 [Parse] 返回 [ErrUnguessablePrefix]。
//
// 实现必须是纯函数：同一地址永远推断出同一长度。
type PrefixGuesser interface {
	GuessPrefixLen(addr netip.Addr) (int, bool)
}

// GuesserFunc 将普通函数适配为 [PrefixGuesser]。
type GuesserFunc func(addr netip.Addr) (int, bool)

// GuessPrefixLen 实现 [PrefixGuesser]。
func (f GuesserFunc) GuessPrefixLen(addr netip.Addr) (int, bool) {
	return f(addr)
}

// ClassfulGuesser 按传统有类网络规则推断前缀长度：
//
//	首字节 0-127   → /8  (A 类)
//	首字节 128-191 → /16 (B 类)
//	首字节 192-223 → /24 (C 类)
//	首字节 224+    → 无法推断（D/E 类没有约定俗成的掩码）
//
// IPv6 地址统一推断为 /64（标准子网大小，RFC 4291）。
//
// 这是 [Parse] 的默认推断策略。
type ClassfulGuesser struct{}

// GuessPrefixLen 实现 [PrefixGuesser]。
func (ClassfulGuesser) GuessPrefixLen(addr netip.Addr) (int, bool) {
	switch AddrFamily(addr) {
	case FamilyV4:
		b := addr.Unmap().As4()
		switch {
		case b[0] < 128:
			return 8, true
		case b[0] < 192:
			return 16, true
		case b[0] < 224:
			return 24, true
		default:
			return 0, false
		}
	case FamilyV6:
		return 64, true
	default:
		return 0, false
	}
}
