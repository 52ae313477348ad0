// Package xcidr 提供 CIDR 网络的值类型代数运算。
//
// xcidr 基于 Go 标准库 [net/netip] 和社区库 [go4.org/netipx] 构建，
// 核心类型 [Network] 把网络表示为规范化的 (基址, 前缀长度, 地址族)
// 三元组，并在其上提供解析、掩码换算、包含判断、子网划分、
// 超网合并与地址枚举。
//
// # 核心功能
//
//   - family.go: 地址族类型 [Family] 及 [AddrFamily] 判断函数
//   - convert.go: uint32/big.Int 与 [netip.Addr] 互转、地址加减运算
//   - mask.go: 掩码与前缀长度互转（[Netmask]/[PrefixLenFromNetmask]）、
//     反掩码、地址计数
//   - network.go: [Network] 值类型及其派生量与谓词
//   - parse.go / guess.go: 解析 CIDR/掩码/单地址形式，可插拔前缀推断
//   - subnet.go: [Network.Subnet] 惰性子网划分（[NetworkRange]）
//   - supernet.go: [Supernet]/[SupernetAll]/[Aggregate]/[Cover] 合并运算
//   - hosts.go: [Network.Hosts] 惰性地址枚举（[AddrRange]）
//   - classify.go: 私有/环回/保留等网络级分类
//   - format.go / wire.go: 规范文本、诊断输出与序列化载体
//
// # 快速示例
//
// 解析并读取派生量：
//
//	n, _ := xcidr.Parse("192.168.168.100/24")
//	fmt.Println(n)               // 192.168.168.0/24（主机位已清零）
//	fmt.Println(n.Broadcast())   // 192.168.168.255
//	fmt.Println(n.UsableCount()) // 254
//
// 掩码形式与单地址推断：
//
//	n, _ = xcidr.Parse("10.0.0.1 255.255.255.0") // 10.0.0.0/24
//	n, _ = xcidr.Parse("192.168.0.1")            // 192.168.0.0/24（C 类推断）
//
// 子网划分与超网合并：
//
//	subnets, _ := xcidr.MustParse("10.0.0.0/8").Subnet(9)
//	for child := range subnets.All() {
//	    fmt.Println(child) // 10.0.0.0/9、10.128.0.0/9
//	}
//	merged, _ := xcidr.Supernet(
//	    xcidr.MustParse("192.168.0.0/24"),
//	    xcidr.MustParse("192.168.1.0/24"),
//	) // 192.168.0.0/23
//
// # 设计决策
//
//   - [Network] 是不可变值类型，构造即规范化：基址恒为掩码对齐后的地址，
//     IPv4-mapped IPv6 输入归一化为纯 IPv4
//   - 相等性使用 [Network.Equal]/[Network.Compare] 而非 ==：
//     广播地址惰性缓存的内部指针会参与 == 比较
//   - 构造时用 [github.com/cespare/xxhash/v2] 计算三元组摘要
//     （[Network.Hash]），供去重集合与外部缓存做键
//   - IPv4 运算走 uint32 快速路径，IPv6 走 big.Int / netipx，
//     掩码与计数运算全程无界，不会发生回绕
//   - 所有可失败函数返回 error，预定义错误变量支持 errors.Is；
//     Must 前缀版本（[MustParse]/[MustNew]）失败即 panic
//
// # 惰性序列
//
// [NetworkRange] 与 [AddrRange] 是惰性有限序列：构造与计数
// （Count/CountUint64）均为解析式计算，随机访问（At）直接寻址，
// 枚举（All，返回 [iter.Seq]）逐个产出且每次调用重新开始。
// IPv6 下 2^64 乃至 2^128 规模的序列也可安全构造与部分消费。
//
// # 地址族语义差异
//
// IPv4 网络保留首地址（网络地址）与末地址（广播地址），
// 可用主机数为总数减二；/31 与 /32 没有可用主机地址。
// IPv6 没有广播语义：[Network.Broadcast] 返回最末地址，
// 可用数等于总数，[FilterUnusable]/[FilterBroadcast] 序列为空。
//
// # 零值行为
//
// Network 零值规范化为 0.0.0.0/0，所有方法对零值安全。
// 解析或构造失败时返回的 Network 永远伴随非 nil 错误，
// 调用方不应使用失败返回值参与运算。
//
// # 错误处理
//
// 预定义错误变量支持 errors.Is 判断：
//
//	_, err := xcidr.Parse("300.0.0.1/24")
//	if errors.Is(err, xcidr.ErrInvalidAddress) {
//	    // 处理无效地址
//	}
//
// # Go 版本要求
//
// xcidr 要求 Go 1.23+（for-range 函数迭代器），与项目 go.mod 对齐。
package xcidr
