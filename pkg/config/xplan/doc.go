// Package xplan 提供地址计划文件的加载、校验与监视，基于 koanf 实现。
//
// # 设计理念
//
// 地址计划是声明式的命名地址池清单：运维在 YAML/JSON 文件中登记每个
// 池的名称与网络，应用启动时加载，经核心解析器逐条校验后使用，
// 运行期可选地监视文件变更自动重载。
//
// xplan 定位为计划装载器，不做地址分配；池的划分、统计与遍历由
// xcidr 的值类型承担（Pool.Subnets 返回惰性序列）。
//
// # 计划文件结构
//
//	pools:
//	  - name: office
//	    cidr: 10.20.0.0/16
//	    subnets: 24        # 可选：预划分目标前缀长度
//	  - name: lab
//	    cidr: "192.168.0.0 255.255.0.0"
//
// cidr 字段接受核心解析器的任意写法（CIDR、地址+掩码、单地址按
// 推断策略补全前缀）；配合 WithParseOptions 还可启用宽松清洗。
//
// # 校验规则
//
//   - 池名称必填且计划内唯一（重复返回 ErrDuplicatePool）
//   - cidr 必须可解析（失败返回 ErrInvalidPool 并包装核心错误）
//   - subnets 配置时必须是该池的合法划分长度
//   - 空计划（零个池）合法
//   - 池之间允许重叠，OverlappingPools 供调用方检查
//
// # 并发安全
//
// 所有方法都是并发安全的。Reload 在解析校验全部通过后才替换内部
// 状态，失败时保留旧计划。Networks/Pools 返回副本，调用方可自由
// 修改而不影响计划本身。
//
// # 计划监视
//
// 支持文件变更监视和自动重载（基于 fsnotify）。
// 特性：监视目录、内置防抖、并发安全、支持 vim/emacs 原子写入。
// 从 bytes 创建的计划不支持监视。
// Stop() 会取消未触发的防抖定时器并释放 fsnotify 资源，可重复调用。
package xplan
