// Package xcidrcache 提供网络解析结果的带 TTL LRU 缓存。
//
// xcidrcache 基于 github.com/hashicorp/golang-lru/v2/expirable 封装，
// 以原始输入字符串为键缓存 [xcidr.Parse] 的结果。适合反复解析
// 同一批网络文本的场景（访问控制列表匹配、日志富化、配置热加载）。
//
// # 核心特性
//
//   - GetOrParse：命中直接返回，未命中解析后写入
//   - TTL 过期：条目超过 TTL 自动过期，过期后重新解析
//   - LRU 淘汰：缓存满时自动淘汰最久未访问的条目
//   - 并发安全：所有操作都是线程安全的
//
// # 配置选项
//
// Config 结构体提供必需的配置：
//   - Size：缓存最大条目数，必须 > 0 且 ≤ 16,777,216
//   - TTL：条目过期时间，0 表示永不过期
//
// 可选配置通过 Option 函数提供：
//   - WithParseOptions：设置 GetOrParse 统一使用的解析选项
//
// # 设计决策
//
// 解析失败不缓存负结果：失败输入通常来自调用方数据错误，
// 反复出现的概率低，缓存负结果只会挤占容量；解析是纯函数，
// 重复失败解析的开销可以接受。
//
// 不做 single-flight 合并：并发未命中时同一输入可能被解析多次，
// 解析无副作用且开销在微秒级，去重的复杂度得不偿失。
//
// # 已知限制
//
//   - 键是原文而非规范形式："10.0.0.1/24" 与 " 10.0.0.1/24 " 即使
//     解析结果相同也是两个条目
//   - 不支持自定义时钟：TTL 使用系统时间，无法注入 mock 时钟
//   - 无内置指标：不提供命中率、淘汰次数等统计
//   - TTL 延迟清理语义：Get 会过滤已过期条目，但 Len/Keys 可能包含
//     已过期但尚未被后台清理的条目（底层库行为）
//   - Close 后行为：Close 后读操作返回零值/false，GetOrParse 退化为直接解析
//   - unsafe 依赖：Close 通过 reflect+unsafe 访问底层库未导出字段以停止 goroutine，
//     升级 golang-lru 版本时需验证兼容性
//
// # 注意事项
//
//   - TTL 是条目级别的，从写入时刻开始计算
//   - Get 不会刷新 TTL
//   - Size 是条目数量，不是内存大小
//   - 使用完毕后应调用 Close() 释放清理 goroutine，避免泄漏
package xcidrcache
