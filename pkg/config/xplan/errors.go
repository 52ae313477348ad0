package xplan

import "errors"

// 计划加载和校验相关错误。
var (
	// ErrEmptyPath 表示计划文件路径为空。
	ErrEmptyPath = errors.New("xplan: empty plan path")

	// ErrUnsupportedFormat 表示不支持的计划文件格式。
	ErrUnsupportedFormat = errors.New("xplan: unsupported plan format")

	// ErrLoadFailed 表示计划文件加载失败。
	ErrLoadFailed = errors.New("xplan: failed to load plan")

	// ErrParseFailed 表示计划文件解析失败。
	ErrParseFailed = errors.New("xplan: failed to parse plan")

	// ErrInvalidPool 表示地址池声明无效（名称缺失、cidr 不可解析
	// 或 subnets 不是合法的划分长度），包装具体的底层错误。
	ErrInvalidPool = errors.New("xplan: invalid pool")

	// ErrDuplicatePool 表示计划内地址池名称重复。
	ErrDuplicatePool = errors.New("xplan: duplicate pool name")
)

// 计划监视相关错误。
var (
	// ErrNotFromFile 表示计划并非从文件加载，无法重载或监视。
	ErrNotFromFile = errors.New("xplan: plan was not loaded from a file")

	// ErrNilCallback 表示监视回调为 nil。
	ErrNilCallback = errors.New("xplan: nil watch callback")

	// ErrInvalidDebounce 表示防抖时间无效。
	ErrInvalidDebounce = errors.New("xplan: debounce must be positive")

	// ErrWatchFailed 表示监视器创建失败或监视期间出错。
	ErrWatchFailed = errors.New("xplan: failed to watch plan")
)
