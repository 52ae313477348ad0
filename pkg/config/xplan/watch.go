package xplan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 计划变更回调函数。
// 文件变更触发重载后调用，err 为重载结果；重载失败时计划保留旧数据。
type WatchCallback func(p *Plan, err error)

// Watcher 计划文件监视器。
// 监控计划文件变更并自动重载校验。
type Watcher struct {
	plan     *Plan
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	closed   bool
	timer    *time.Timer // debounce 定时器，Stop() 时需要取消
}

// WatchOption 监视器配置选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{
		debounce: 100 * time.Millisecond, // 默认防抖时间
	}
}

// WithDebounce 设置防抖时间。
// 在指定时间内的多次变更只触发一次重载。
// 必须为正值，默认 100ms，适合大多数场景。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// Watch 创建计划文件监视器。
//
// 监控计划文件变更并自动调用 Reload() 重新加载校验。
// 每次重载后调用 callback 通知调用方结果。
//
// 参数:
//   - p: 要监视的计划实例（必须通过 New() 从文件加载）
//   - callback: 变更回调函数，不可为 nil
//   - opts: 可选配置
//
// 注意:
//   - 从 bytes 创建的计划不支持监视，返回 ErrNotFromFile
//   - 返回的 Watcher 需要调用 Start() 或 StartAsync() 开始监视，Stop() 停止
//
// 示例:
//
//	plan, _ := xplan.New("/etc/app/pools.yaml")
//	w, err := xplan.Watch(plan, func(p *xplan.Plan, err error) {
//	    if err != nil {
//	        log.Printf("plan reload failed: %v", err)
//	        return
//	    }
//	    log.Printf("plan reloaded: %d pools", p.Len())
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//	w.StartAsync()
func Watch(p *Plan, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil plan", ErrWatchFailed)
	}
	if p.isBytes {
		return nil, ErrNotFromFile
	}
	if p.path == "" {
		return nil, ErrEmptyPath
	}
	if callback == nil {
		return nil, ErrNilCallback
	}

	// 应用选项
	options := defaultWatchOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.debounce <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDebounce, options.debounce)
	}

	// 创建 fsnotify watcher
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchFailed, err)
	}

	// 监视计划文件所在目录（而非文件本身）
	// 因为编辑器保存文件时可能先删除再创建，直接监视文件会丢失事件
	dir := filepath.Dir(p.path)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("%w: directory %s: %w", ErrWatchFailed, dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		plan:     p,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 启动监视。
// 此方法会阻塞直到 Stop() 被调用，通常应在 goroutine 中调用。
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.run()
}

// StartAsync 异步启动监视。
// 在后台 goroutine 中运行，立即返回。
// 解决与 Stop() 的竞态：先设置 running 标志再启动 goroutine。
func (w *Watcher) StartAsync() {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
}

// Stop 停止监视并释放 fsnotify 资源。
// 幂等；未启动过的 Watcher 调用 Stop 同样会释放资源。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	// 取消待触发的 debounce 定时器，防止 Stop 后仍触发回调
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	w.running = false
	return w.watcher.Close()
}

// run 运行监视循环。
func (w *Watcher) run() {
	filename := filepath.Base(w.plan.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent 处理文件系统事件。
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	// 只处理目标计划文件的事件
	if filepath.Base(event.Name) != filename {
		return
	}

	// 处理可能表示计划更新的事件
	// - Write: 直接修改
	// - Create: 新建文件（部分编辑器）
	// - Rename: 原子写入模式（vim/emacs 写临时文件后 rename）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	// 防抖处理：重置计时器
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		// 检查 watcher 是否已停止
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.invoke(w.plan.Reload())
	})
}

// handleError 处理 watcher 错误。
func (w *Watcher) handleError(err error) {
	w.invoke(fmt.Errorf("%w: %w", ErrWatchFailed, err))
}

// invoke 调用回调并吸收 panic，用户回调异常不会崩溃监视 goroutine。
func (w *Watcher) invoke(err error) {
	defer func() { _ = recover() }()
	w.callback(w.plan, err)
}

// Watch 监视计划文件变更，等价于包级 Watch(p, callback, opts...)。
func (p *Plan) Watch(callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	return Watch(p, callback, opts...)
}
