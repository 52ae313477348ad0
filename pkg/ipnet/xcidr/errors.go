package xcidr

import "errors"

var (
	// ErrEmptyInput 表示输入为空或缺失。
	ErrEmptyInput = errors.New("xcidr: empty or missing input")

	// ErrInvalidAddress 表示无效的 IP 地址字符串。
	ErrInvalidAddress = errors.New("xcidr: invalid IP address")

	// ErrInvalidNetmask 表示格式错误或非连续的子网掩码。
	// 合法掩码的位模式必须是前缀全 1 后缀全 0（如 255.255.255.0）。
	ErrInvalidNetmask = errors.New("xcidr: invalid netmask")

	// ErrPrefixOutOfRange 表示前缀长度超出地址族的合法区间
	// （IPv4: 0-32，IPv6: 0-128）。
	ErrPrefixOutOfRange = errors.New("xcidr: prefix length out of range")

	// ErrUnguessablePrefix 表示单地址输入无法推断前缀长度。
	ErrUnguessablePrefix = errors.New("xcidr: unable to guess prefix length")

	// ErrMixedFamily 表示操作混合了 IPv4 和 IPv6 网络。
	ErrMixedFamily = errors.New("xcidr: mixed address families")

	// ErrNotAdjacent 表示两个网络不相邻，无法合并为超网。
	ErrNotAdjacent = errors.New("xcidr: networks are not adjacent")

	// ErrMisalignedBoundary 表示两个相邻网络未对齐到超网边界。
	// 例如 192.168.1.0/24 和 192.168.2.0/24 相邻，但合并后的 /23
	// 起点不落在 2 的幂边界上。
	ErrMisalignedBoundary = errors.New("xcidr: networks are not aligned on a supernet boundary")

	// ErrInvalidSplit 表示子网划分的目标前缀长度非法
	// （小于父网络前缀或超出地址族位宽）。
	ErrInvalidSplit = errors.New("xcidr: invalid subnet split")

	// ErrInvalidFamily 表示无效的地址族。
	ErrInvalidFamily = errors.New("xcidr: invalid address family")

	// ErrBigIntRange 表示 big.Int 值超出 IP 地址范围。
	ErrBigIntRange = errors.New("xcidr: big.Int value out of range for IP address")

	// ErrIndexOutOfRange 表示序列索引越界。
	ErrIndexOutOfRange = errors.New("xcidr: index out of range")

	// ErrInvalidHostFilter 表示未知的主机过滤器取值。
	ErrInvalidHostFilter = errors.New("xcidr: invalid host filter")

	// ErrOverflow 表示地址运算越过地址空间边界。
	ErrOverflow = errors.New("xcidr: address overflow")
)
