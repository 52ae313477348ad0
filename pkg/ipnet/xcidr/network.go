package xcidr

import (
	"cmp"
	"fmt"
	"math/big"
	"net/netip"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go4.org/netipx"
)

// Network 表示一个规范化的 CIDR 网络，即 (基址, 前缀长度, 地址族) 三元组。
// 基址恒为按前缀掩码对齐后的地址：New(192.168.1.100, 24) 与
// New(192.168.1.0, 24) 表示同一个网络。
//
// Network 是不可变值类型，可安全复制与并发读取。
// 相等性判断请使用 [Network.Equal] 而非 ==：
// 广播地址惰性缓存通过内部指针在副本间共享，== 会连同指针一起比较。
//
// 零值 Network 规范化为 0.0.0.0/0。所有访问方法对零值安全，
// 但解析和构造失败时返回的 Network 永远伴随非 nil 错误，
// 调用方不应依赖失败返回值的内容。
type Network struct {
	base netip.Addr
	bits uint8
	fam  Family

	// hash 在构造时一次性计算，用于去重集合与分片路由等场景。
	hash uint64

	// bcast 惰性缓存广播地址。指针在值副本间共享，
	// 同一网络的广播地址至多计算一次。
	bcast *bcastCell
}

type bcastCell struct {
	once sync.Once
	addr netip.Addr
}

// zeroV4 是零值 Network 的规范化形式（0.0.0.0/0）。
var zeroV4 = func() Network {
	n, err := newNetwork(netip.AddrFrom4([4]byte{}), 0)
	if err != nil {
		panic(err)
	}
	return n
}()

// New 从地址和前缀长度构造网络。
// addr 的主机位会被掩码清零；IPv4-mapped IPv6 地址归一化为纯 IPv4。
// 前缀长度超出地址族位宽返回 [ErrPrefixOutOfRange]。
func New(addr netip.Addr, prefixLen int) (Network, error) {
	return newNetwork(addr, prefixLen)
}

// MustNew 是 [New] 的 panic 版本，用于前缀长度已知合法的场景
// （如包级常量初始化）。
func MustNew(addr netip.Addr, prefixLen int) Network {
	n, err := New(addr, prefixLen)
	if err != nil {
		panic(err)
	}
	return n
}

// NewFromMask 从地址和子网掩码构造网络。
// 掩码必须是连续掩码（如 255.255.255.0），否则返回 [ErrInvalidNetmask]。
// 掩码与地址的地址族不一致返回 [ErrMixedFamily]。
func NewFromMask(addr, mask netip.Addr) (Network, error) {
	prefixLen, err := PrefixLenFromNetmask(mask)
	if err != nil {
		return Network{}, err
	}
	if !addr.IsValid() {
		return Network{}, fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	if AddrFamily(addr) != AddrFamily(mask) {
		return Network{}, fmt.Errorf("%w: address %s with mask %s", ErrMixedFamily, addr, mask)
	}
	return newNetwork(addr, prefixLen)
}

// FromPrefix 从 [netip.Prefix] 构造网络。
// 无效 Prefix 返回 [ErrInvalidAddress]。
func FromPrefix(p netip.Prefix) (Network, error) {
	if !p.IsValid() {
		return Network{}, fmt.Errorf("%w: invalid prefix", ErrInvalidAddress)
	}
	return newNetwork(p.Addr(), p.Bits())
}

// newNetwork 是所有构造路径共用的规范化入口。
func newNetwork(addr netip.Addr, prefixLen int) (Network, error) {
	if !addr.IsValid() {
		return Network{}, fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	// 设计决策: 拒绝携带 IPv6 zone ID 的地址（如 fe80::1%eth0）。
	// zone 是接口作用域信息，掩码运算会静默丢弃它，
	// 允许传入会造成 Parse 与 String 不可逆。
	if addr.Zone() != "" {
		return Network{}, fmt.Errorf("%w: IPv6 zone ID is not supported: %s", ErrInvalidAddress, addr)
	}
	fam := AddrFamily(addr)
	addr = addr.Unmap()
	if err := checkPrefixLen(prefixLen, fam); err != nil {
		return Network{}, err
	}
	base := netip.PrefixFrom(addr, prefixLen).Masked().Addr()
	n := Network{
		base:  base,
		bits:  uint8(prefixLen),
		fam:   fam,
		bcast: &bcastCell{},
	}
	n.hash = networkHash(fam, n.bits, base)
	return n, nil
}

// networkHash 计算网络三元组的 xxhash 摘要。
func networkHash(fam Family, bits uint8, base netip.Addr) uint64 {
	var buf [18]byte
	buf[0] = byte(fam)
	buf[1] = bits
	n := 2
	if fam == FamilyV4 {
		b := base.As4()
		n += copy(buf[2:], b[:])
	} else {
		b := base.As16()
		n += copy(buf[2:], b[:])
	}
	return xxhash.Sum64(buf[:n])
}

// norm 返回 n 的规范化形式：零值映射为 0.0.0.0/0，其余原样返回。
func (n Network) norm() Network {
	if n.fam == FamilyNone {
		return zeroV4
	}
	return n
}

// Addr 返回网络基址（已掩码对齐）。
func (n Network) Addr() netip.Addr {
	return n.norm().base
}

// PrefixLen 返回前缀长度。
func (n Network) PrefixLen() int {
	return int(n.norm().bits)
}

// Family 返回网络的地址族。
func (n Network) Family() Family {
	return n.norm().fam
}

// Prefix 返回网络对应的 [netip.Prefix]。
func (n Network) Prefix() netip.Prefix {
	n = n.norm()
	return netip.PrefixFrom(n.base, int(n.bits))
}

// Range 返回网络覆盖的 [netipx.IPRange]（基址到最末地址的闭区间）。
func (n Network) Range() netipx.IPRange {
	return netipx.RangeOfPrefix(n.Prefix())
}

// Netmask 返回网络的子网掩码地址。
func (n Network) Netmask() netip.Addr {
	n = n.norm()
	// 前缀长度在构造时已校验
	mask, _ := Netmask(int(n.bits), n.fam)
	return mask
}

// Wildcard 返回网络的反掩码地址。
func (n Network) Wildcard() netip.Addr {
	n = n.norm()
	w, _ := Wildcard(int(n.bits), n.fam)
	return w
}

// Broadcast 返回网络的广播地址（基址与反掩码按位或）。
// 结果惰性计算并在值副本间共享，后续调用直接命中缓存。
//
// 注意：IPv6 没有广播语义，此时返回网络的最末地址。
func (n Network) Broadcast() netip.Addr {
	n = n.norm()
	if n.bcast == nil {
		// 手工构造的零值：直接计算，不缓存
		return lastAddrOf(n.base, int(n.bits))
	}
	n.bcast.once.Do(func() {
		n.bcast.addr = lastAddrOf(n.base, int(n.bits))
	})
	return n.bcast.addr
}

// FirstUsable 返回网络中第一个可用主机地址。
// IPv4 为基址加一；IPv6 为基址本身。
// 无可用地址（IPv4 /31、/32）返回 (zero, false)。
func (n Network) FirstUsable() (netip.Addr, bool) {
	n = n.norm()
	if n.fam == FamilyV6 {
		return n.base, true
	}
	if n.bits > 30 {
		return netip.Addr{}, false
	}
	a, err := AddrAdd(n.base, 1)
	if err != nil {
		return netip.Addr{}, false
	}
	return a, true
}

// LastUsable 返回网络中最后一个可用主机地址。
// IPv4 为广播地址减一；IPv6 为最末地址本身。
// 无可用地址（IPv4 /31、/32）返回 (zero, false)。
func (n Network) LastUsable() (netip.Addr, bool) {
	n = n.norm()
	if n.fam == FamilyV6 {
		return n.Broadcast(), true
	}
	if n.bits > 30 {
		return netip.Addr{}, false
	}
	a, err := AddrAdd(n.Broadcast(), -1)
	if err != nil {
		return netip.Addr{}, false
	}
	return a, true
}

// TotalCount 返回网络覆盖的地址总数。
func (n Network) TotalCount() *big.Int {
	n = n.norm()
	return TotalCount(int(n.bits), n.fam)
}

// UsableCount 返回网络的可用主机地址数。
// 语义见包级 [UsableCount]。
func (n Network) UsableCount() *big.Int {
	n = n.norm()
	return UsableCount(int(n.bits), n.fam)
}

// Contains 报告 addr 是否落在网络覆盖范围内。
// 地址族不一致返回 false（IPv4-mapped IPv6 地址视为 IPv4 参与判断）。
// 无效地址返回 false。
func (n Network) Contains(addr netip.Addr) bool {
	n = n.norm()
	if AddrFamily(addr) != n.fam {
		return false
	}
	return n.Prefix().Contains(addr.Unmap())
}

// ContainsNetwork 报告 other 是否完整落在 n 的覆盖范围内。
// 网络包含自身。地址族不一致返回 false。
func (n Network) ContainsNetwork(other Network) bool {
	a, b := n.norm(), other.norm()
	if a.fam != b.fam {
		return false
	}
	// 前缀更短且覆盖子网基址 ⇒ 覆盖整个对齐块
	return a.bits <= b.bits && a.Contains(b.base)
}

// Overlaps 报告两个网络的覆盖范围是否有交集。
// 对称：a.Overlaps(b) == b.Overlaps(a)。地址族不一致返回 false。
// 对齐的 CIDR 块之间有交集当且仅当其中一个包含另一个。
func (n Network) Overlaps(other Network) bool {
	a, b := n.norm(), other.norm()
	if a.fam != b.fam {
		return false
	}
	return a.Prefix().Overlaps(b.Prefix())
}

// Equal 报告两个网络是否表示同一 (地址族, 基址, 前缀长度) 三元组。
func (n Network) Equal(other Network) bool {
	a, b := n.norm(), other.norm()
	return a.fam == b.fam && a.bits == b.bits && a.base == b.base
}

// Compare 按 (地址族, 基址, 前缀长度) 字典序比较两个网络，
// 返回 -1、0 或 1。可直接用于 [slices.SortFunc]。
// 同基址时前缀更短（覆盖更大）的网络排在前面。
func (n Network) Compare(other Network) int {
	a, b := n.norm(), other.norm()
	if c := cmp.Compare(a.fam, b.fam); c != 0 {
		return c
	}
	if c := a.base.Compare(b.base); c != 0 {
		return c
	}
	return cmp.Compare(a.bits, b.bits)
}

// Hash 返回网络三元组的 64 位 xxhash 摘要。
// 相等的网络（[Network.Equal] 意义下）哈希值必然相等，
// 可用于去重、分片或作为外部缓存键。
func (n Network) Hash() uint64 {
	if n.fam == FamilyNone {
		return zeroV4.hash
	}
	return n.hash
}
