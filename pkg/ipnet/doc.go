// Package ipnet 提供 IP 网络计算相关的子包。
//
// 子包列表：
//   - xcidr: CIDR 网络值类型库，基于 net/netip + go4.org/netipx 的解析、子网划分、聚合与地址枚举
//   - xcidrcache: 解析结果 LRU 缓存，泛型支持、自动 TTL 过期
//
// 设计原则：
//   - 网络是不可变值类型，可安全并发共享
//   - 地址序列惰性求值，计数与随机访问均为解析式
//   - 失败返回哨兵错误，不做静默兜底
package ipnet
