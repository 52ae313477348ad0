package xcidrcache

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/omeyang/ipkit/pkg/ipnet/xcidr"
)

// maxSize 缓存最大条目数上限。
const maxSize = 1 << 24 // 16,777,216

// Config 定义缓存配置。
type Config struct {
	// Size 缓存最大条目数。
	// 必须大于 0 且不超过 16,777,216。
	Size int

	// TTL 条目过期时间。
	// 0 表示永不过期，不允许负值。
	TTL time.Duration
}

// Option 定义缓存可选配置函数类型。
type Option func(*options)

// options 内部可选配置。
type options struct {
	parseOpts []xcidr.ParseOption
}

// WithParseOptions 设置 [Cache.GetOrParse] 使用的解析选项。
//
// 设计决策: 解析选项在构造时固定而非逐调用传入：缓存以原始输入
// 字符串为键，同一字符串在不同选项下可以解析出不同网络
// （如 WithSanitize 对 "10.0.0.1 - 255.255.255.0" 的影响），
// 逐调用选项会让键失去唯一含义。需要不同选项时创建多个缓存。
func WithParseOptions(opts ...xcidr.ParseOption) Option {
	return func(o *options) {
		o.parseOpts = opts
	}
}

// Cache 是网络解析结果的 LRU 缓存，以原始输入字符串为键。
// 必须通过 [New] 函数创建，零值不可用（方法调用会 panic）。
// 所有方法都是并发安全的。
// 调用 Close 后，所有读操作返回零值/false，写操作静默忽略。
//
// 键严格按输入原文匹配："10.0.0.1/24" 与 " 10.0.0.1/24 " 是
// 两个条目，即使解析结果相同。
type Cache struct {
	lru       *expirable.LRU[string, xcidr.Network]
	parseOpts []xcidr.ParseOption
	closed    atomic.Bool
	closeOnce sync.Once
}

// New 创建新的解析缓存。
// 如果 cfg.Size <= 0，返回 ErrInvalidSize。
// 如果 cfg.Size > maxSize (16,777,216)，返回 ErrSizeExceedsMax。
// 如果 cfg.TTL < 0，返回 ErrInvalidTTL。
func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.Size > maxSize {
		return nil, ErrSizeExceedsMax
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return &Cache{
		lru:       expirable.NewLRU[string, xcidr.Network](cfg.Size, nil, cfg.TTL),
		parseOpts: o.parseOpts,
	}, nil
}

// GetOrParse 返回输入对应的网络：命中缓存直接返回，
// 未命中时解析并写入缓存。
//
// 解析失败的输入不会被缓存：失败通常意味着调用方数据有误，
// 缓存负结果只会挤占容量；纯函数的重复解析开销可接受。
// 缓存已关闭时退化为每次直接解析。
func (c *Cache) GetOrParse(s string) (xcidr.Network, error) {
	if n, ok := c.Get(s); ok {
		return n, nil
	}
	n, err := xcidr.Parse(s, c.parseOpts...)
	if err != nil {
		return xcidr.Network{}, err
	}
	if !c.closed.Load() {
		c.lru.Add(s, n)
	}
	return n, nil
}

// Get 获取已缓存的解析结果，不触发解析。
// 如果键不存在、已过期或缓存已关闭，返回零值和 false。
func (c *Cache) Get(s string) (xcidr.Network, bool) {
	if c.closed.Load() {
		return xcidr.Network{}, false
	}
	return c.lru.Get(s)
}

// Contains 检查输入是否已有缓存条目（不更新访问顺序）。
//
// 设计决策: 内部使用 Peek 而非上游 expirable.LRU.Contains，因为上游 Contains
// 不检查 TTL 过期（仅做 map 查找），而 Peek 会过滤已过期条目。
// 这确保 Contains 与 Get 的 TTL 语义一致。
//
// 如果缓存已关闭，返回 false。
func (c *Cache) Contains(s string) bool {
	if c.closed.Load() {
		return false
	}
	_, ok := c.lru.Peek(s)
	return ok
}

// Delete 删除缓存条目。
// 返回 true 表示键存在并被删除。
// 如果缓存已关闭，返回 false。
func (c *Cache) Delete(s string) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Remove(s)
}

// Clear 清空所有缓存条目。
// 如果缓存已关闭，静默忽略。
func (c *Cache) Clear() {
	if c.closed.Load() {
		return
	}
	c.lru.Purge()
}

// Len 返回当前缓存条目数。
//
// 注意：返回值可能包含已过期但尚未被后台清理的条目。
// 如果缓存已关闭，返回 0。
func (c *Cache) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.lru.Len()
}

// Keys 返回所有键的切片，按从最旧到最新的顺序排列。
//
// 注意：返回值可能包含已过期但尚未被后台清理的条目的键。
// 如果缓存已关闭，返回 nil。
func (c *Cache) Keys() []string {
	if c.closed.Load() {
		return nil
	}
	return c.lru.Keys()
}

// Close 关闭缓存，释放资源。
// 该方法是幂等的：多次调用只会执行一次清理。
//
// Close 会清空所有缓存条目并停止 TTL 过期清理 goroutine。
// Close 后所有读操作返回零值/false，[Cache.GetOrParse] 退化为直接解析。
//
// 设计决策: closed 标记与 lru 操作之间存在微小的 TOCTOU 窗口——在 closed.Load()
// 返回 false 到实际执行 lru 方法之间，另一个 goroutine 可能调用 Close()。
// 这是可接受的：底层 LRU 在 Purge() 后仍是有效对象（只是为空），
// 不会导致 panic 或数据损坏，仅可能出现操作在关闭瞬间的短暂可见性。
func (c *Cache) Close() {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopCleanupGoroutine(c.lru)
	})
}

// stopCleanupGoroutine 停止 expirable.LRU 内部的清理 goroutine。
// 返回 true 表示成功停止，false 表示降级为无操作（上游结构变化或通道已关闭）。
//
// 设计决策: hashicorp/golang-lru/v2@v2.0.7 在 TTL > 0 时启动后台 goroutine 清理过期条目，
// 但其 Close() 方法被注释掉（源码注释："decided to add functionality to close it in the version
// later than v2"），无法通过公开 API 停止。此函数通过 reflect + unsafe 访问内部 done 通道
// (类型 chan struct{}) 并关闭它，使后台 goroutine 退出。
//
// 已知限制：
//   - 依赖上游未导出字段 "done" 的名称和类型（chan struct{}），升级版本后应验证
//   - 如果上游结构变化（字段重命名/类型变更），返回 false（goroutine 泄漏），
//     此时 TestStopCleanupGoroutine_UpstreamStructAssert 会捕获此问题
//   - 如果 done 已关闭，recover 捕获 panic，返回 false
//
// 维护须知: 升级 golang-lru 版本时，检查上游是否已实现公开的 Close() 方法。
// 若已实现，应移除此函数并直接调用上游 Close()。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		// close(doneCh) 可能因通道已关闭而 panic，静默捕获并返回 false
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}

	doneField := v.Elem().FieldByName("done")
	if !doneField.IsValid() || doneField.IsNil() {
		return false
	}

	// 验证字段类型为 chan struct{}
	if doneField.Type() != reflect.TypeOf(make(chan struct{})) {
		return false
	}

	// 通过 unsafe 访问未导出字段值，关闭 done 通道使清理 goroutine 退出
	doneCh := *(*chan struct{})(unsafe.Pointer(doneField.UnsafeAddr())) //nolint:gosec // 有意使用 unsafe 访问内部字段
	close(doneCh)
	return true
}
