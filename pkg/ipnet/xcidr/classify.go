package xcidr

// 设计决策: 分类判断作用于整个网络而非单个地址：
// 仅当网络完整落在某个公认地址块内时才归入该类。
// 越出块边界的网络（如 10.0.0.0/7 同时覆盖 10.0.0.0/8 与 11.0.0.0/8）
// 不属于任何特殊类。

var (
	// RFC 1918 私有地址块（IANA 保留给内部编址）
	ianaReservedBlocks = []Network{
		MustParse("10.0.0.0/8"),
		MustParse("172.16.0.0/12"),
		MustParse("192.168.0.0/16"),
	}

	// RFC 1918 加 IPv6 ULA（fc00::/7，RFC 4193）
	privateBlocks = []Network{
		MustParse("10.0.0.0/8"),
		MustParse("172.16.0.0/12"),
		MustParse("192.168.0.0/16"),
		MustParse("fc00::/7"),
	}

	loopbackBlocks = []Network{
		MustParse("127.0.0.0/8"),
		MustParse("::1/128"),
	}

	linkLocalBlocks = []Network{
		MustParse("169.254.0.0/16"),
		MustParse("fe80::/10"),
	}

	multicastBlocks = []Network{
		MustParse("224.0.0.0/4"),
		MustParse("ff00::/8"),
	}

	// TEST-NET-1/2/3（RFC 5737）与 2001:db8::/32（RFC 3849）
	documentationBlocks = []Network{
		MustParse("192.0.2.0/24"),
		MustParse("198.51.100.0/24"),
		MustParse("203.0.113.0/24"),
		MustParse("2001:db8::/32"),
	}
)

// IsIANAReserved 报告网络是否完整落在 RFC 1918 的三个保留块之一
// （10.0.0.0/8、172.16.0.0/12、192.168.0.0/16）。
func IsIANAReserved(n Network) bool {
	return containedInAny(n, ianaReservedBlocks)
}

// IsPrivate 报告网络是否为私有网络。
// 私有块包括 RFC 1918 的三个 IPv4 块和 IPv6 ULA（fc00::/7）。
func IsPrivate(n Network) bool {
	return containedInAny(n, privateBlocks)
}

// IsLoopback 报告网络是否完整落在环回块内
// （127.0.0.0/8 或 ::1/128）。
func IsLoopback(n Network) bool {
	return containedInAny(n, loopbackBlocks)
}

// IsLinkLocal 报告网络是否完整落在链路本地块内
// （169.254.0.0/16 或 fe80::/10）。
func IsLinkLocal(n Network) bool {
	return containedInAny(n, linkLocalBlocks)
}

// IsMulticast 报告网络是否完整落在多播块内
// （224.0.0.0/4 或 ff00::/8）。
func IsMulticast(n Network) bool {
	return containedInAny(n, multicastBlocks)
}

// IsDocumentation 报告网络是否完整落在文档专用块内
// （TEST-NET-1/2/3 或 2001:db8::/32）。
func IsDocumentation(n Network) bool {
	return containedInAny(n, documentationBlocks)
}

// containedInAny 报告 n 是否被 blocks 中任一网络完整包含。
func containedInAny(n Network, blocks []Network) bool {
	n = n.norm()
	for _, b := range blocks {
		if b.ContainsNetwork(n) {
			return true
		}
	}
	return false
}

// Classify 返回网络的分类信息。
//
// 示例：
//
//	n := xcidr.MustParse("192.168.1.0/24")
//	c := xcidr.Classify(n)
//	fmt.Println(c.IsPrivate)      // true
//	fmt.Println(c.IsIANAReserved) // true
func Classify(n Network) Classification {
	c := Classification{
		Family:          n.Family(),
		IsIANAReserved:  IsIANAReserved(n),
		IsPrivate:       IsPrivate(n),
		IsLoopback:      IsLoopback(n),
		IsLinkLocal:     IsLinkLocal(n),
		IsMulticast:     IsMulticast(n),
		IsDocumentation: IsDocumentation(n),
	}
	c.IsGlobal = !c.IsPrivate && !c.IsLoopback && !c.IsLinkLocal &&
		!c.IsMulticast && !c.IsDocumentation
	return c
}

// Classification 包含网络的各种分类信息。
//
// 设计决策: 使用扁平的导出字段而非位标志或方法集：
// 值类型结构体添加字段向后兼容，调用方直接访问 c.IsPrivate
// 比 c.Has(FlagPrivate) 更符合 Go 惯用法。
type Classification struct {
	// Family 是网络的地址族。
	Family Family

	// IsIANAReserved 表示是否完整落在 RFC 1918 保留块内。
	IsIANAReserved bool

	// IsPrivate 表示是否为私有网络（RFC 1918 或 IPv6 ULA）。
	IsPrivate bool

	// IsLoopback 表示是否为环回网络。
	IsLoopback bool

	// IsLinkLocal 表示是否为链路本地网络。
	IsLinkLocal bool

	// IsMulticast 表示是否为多播网络。
	IsMulticast bool

	// IsDocumentation 表示是否为文档专用网络。
	IsDocumentation bool

	// IsGlobal 表示不属于上述任何特殊块。
	IsGlobal bool
}

// String 返回分类信息的字符串标签。
// 优先级：越特殊的分类越靠前（如 loopback > private > global）。
func (c Classification) String() string {
	labels := [...]struct {
		flag  bool
		label string
	}{
		{c.IsLoopback, "loopback"},
		{c.IsLinkLocal, "link-local"},
		{c.IsDocumentation, "documentation"},
		{c.IsMulticast, "multicast"},
		{c.IsPrivate, "private"},
		{c.IsGlobal, "global"},
	}
	for _, e := range labels {
		if e.flag {
			return e.label
		}
	}
	// Classify() 总会设置 IsGlobal 兜底，仅手工构造的结构体触达此分支
	return "unknown"
}
