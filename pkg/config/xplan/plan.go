package xplan

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/ipkit/pkg/ipnet/xcidr"
)

// Format 计划文件格式。
type Format string

const (
	// FormatYAML YAML 格式（.yaml / .yml）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式（.json）。
	FormatJSON Format = "json"
)

// 计划文件的 koanf 键分隔符与结构体标签固定不可配：
// 计划结构是封闭 schema，不存在调用方自定义键路径的场景。
const (
	planDelim = "."
	planTag   = "koanf"
)

// PoolSpec 计划文件中单个地址池的原始声明。
type PoolSpec struct {
	// Name 池名称，计划内唯一。
	Name string `koanf:"name"`

	// CIDR 池网络，接受核心解析器的任意写法
	// （CIDR、地址+掩码、单地址按推断策略补全前缀）。
	CIDR string `koanf:"cidr"`

	// Subnets 预划分的目标前缀长度，0 表示不预划分。
	Subnets int `koanf:"subnets"`
}

// planFile 对应计划文件的顶层结构。
type planFile struct {
	Pools []PoolSpec `koanf:"pools"`
}

// Pool 校验通过的命名地址池。
type Pool struct {
	// Name 池名称（已去除首尾空白）。
	Name string

	// Network 解析规范化后的池网络。
	Network xcidr.Network

	// SubnetLen 预划分目标前缀长度，0 表示未配置。
	SubnetLen int
}

// Subnets 返回按 SubnetLen 预划分的子网序列。
// 未配置预划分时第二个返回值为 false。
// 序列是惰性的，巨大的池（如 IPv6 /32 划分为 /64）也不会物化。
func (p Pool) Subnets() (xcidr.NetworkRange, bool) {
	if p.SubnetLen == 0 {
		return xcidr.NetworkRange{}, false
	}
	r, err := p.Network.Subnet(p.SubnetLen)
	if err != nil {
		return xcidr.NetworkRange{}, false
	}
	return r, true
}

// Plan 已加载的地址计划。
// 所有方法并发安全；Reload 失败时保留旧数据。
type Plan struct {
	path    string
	format  Format
	opts    *options
	isBytes bool // 标记是否从字节数据创建

	mu    sync.RWMutex
	k     *koanf.Koanf
	pools []Pool
	nets  map[string]xcidr.Network
}

// options 聚合计划加载选项。
type options struct {
	parseOpts []xcidr.ParseOption
}

// Option 计划加载选项函数。
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

// WithParseOptions 设置解析池网络时传递给核心解析器的选项。
// 例如 xcidr.WithSanitize() 容忍带引号或 "addr - mask" 写法的脏输入。
func WithParseOptions(opts ...xcidr.ParseOption) Option {
	return func(o *options) {
		o.parseOpts = opts
	}
}

// New 从文件加载地址计划。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func New(path string, opts ...Option) (*Plan, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	p := &Plan{
		path:    path,
		format:  format,
		opts:    options,
		isBytes: false,
	}
	if err := p.load(data); err != nil {
		return nil, err
	}
	return p, nil
}

// NewFromBytes 从字节数据加载地址计划。
// 需要显式指定格式，适用于 K8s ConfigMap 等场景。
//
// 空数据处理：
//   - 空数据（len(data) == 0）会创建一个空计划（零个池）
//   - 与 New 行为一致：New 允许读取空文件，NewFromBytes 也允许空数据
func NewFromBytes(data []byte, format Format, opts ...Option) (*Plan, error) {
	if !isValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	p := &Plan{
		format:  format,
		opts:    options,
		isBytes: true,
	}
	if err := p.load(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Client 返回底层的 koanf 实例，用于读取计划文件中 pools 之外的附加键。
// Reload 后旧指针仍然有效但指向旧数据（快照语义），
// 需要时应重新调用 Client() 而非长期缓存返回值。
func (p *Plan) Client() *koanf.Koanf {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.k
}

// Networks 返回池名称到网络的映射副本。
func (p *Plan) Networks() map[string]xcidr.Network {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.nets)
}

// Pools 返回文件顺序的池列表副本。
func (p *Plan) Pools() []Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.pools)
}

// Pool 按名称查找池。
func (p *Plan) Pool(name string) (Pool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, pool := range p.pools {
		if pool.Name == name {
			return pool, true
		}
	}
	return Pool{}, false
}

// Len 返回计划中的池数量。
func (p *Plan) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pools)
}

// OverlappingPools 返回网络互相重叠的池名称对，按文件顺序两两比较。
// 重叠不视为加载错误（汇总池与其子池并存是合法计划），
// 是否接受由调用方决定。
func (p *Plan) OverlappingPools() [][2]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pairs [][2]string
	for i := range p.pools {
		for j := i + 1; j < len(p.pools); j++ {
			if p.pools[i].Network.Overlaps(p.pools[j].Network) {
				pairs = append(pairs, [2]string{p.pools[i].Name, p.pools[j].Name})
			}
		}
	}
	return pairs
}

// Reload 重新加载计划文件。
// 解析或校验任一环节失败时返回错误并保留旧计划。
func (p *Plan) Reload() error {
	if p.isBytes {
		return ErrNotFromFile
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return p.load(data)
}

// Path 返回计划文件路径，从字节数据创建时为空。
func (p *Plan) Path() string {
	return p.path
}

// Format 返回计划文件格式。
func (p *Plan) Format() Format {
	return p.format
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// load 解析并校验计划数据，全部通过后才替换内部状态。
func (p *Plan) load(data []byte) error {
	k := koanf.New(planDelim)

	// 空数据创建空计划，与空文件行为一致
	if len(data) > 0 {
		if err := loadData(k, data, p.format); err != nil {
			return err
		}
	}

	var pf planFile
	if err := k.UnmarshalWithConf("", &pf, koanf.UnmarshalConf{
		Tag: planTag,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	pools, nets, err := buildPools(pf.Pools, p.opts.parseOpts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.k = k
	p.pools = pools
	p.nets = nets
	p.mu.Unlock()
	return nil
}

// buildPools 校验原始声明并构建池列表与名称索引。
func buildPools(specs []PoolSpec, parseOpts []xcidr.ParseOption) ([]Pool, map[string]xcidr.Network, error) {
	pools := make([]Pool, 0, len(specs))
	nets := make(map[string]xcidr.Network, len(specs))

	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: pool [%d] has no name", ErrInvalidPool, i)
		}
		if _, ok := nets[name]; ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicatePool, name)
		}

		network, err := xcidr.Parse(spec.CIDR, parseOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: pool %q: %w", ErrInvalidPool, name, err)
		}

		if spec.Subnets != 0 {
			if _, err := network.Subnet(spec.Subnets); err != nil {
				return nil, nil, fmt.Errorf("%w: pool %q: %w", ErrInvalidPool, name, err)
			}
		}

		pools = append(pools, Pool{
			Name:      name,
			Network:   network,
			SubnetLen: spec.Subnets,
		})
		nets[name] = network
	}

	return pools, nets, nil
}

// detectFormat 根据文件扩展名检测计划格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// loadData 加载数据到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
