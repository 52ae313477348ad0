package xcidr

import "fmt"

// WireNetwork 是网络的序列化载体。
// 使用 JSON/BSON/YAML 标签 {"cidr":"192.168.1.0/24"}，
// 三种编码共用规范文本格式。
//
// [Network] 本身已实现 encoding.TextMarshaler/TextUnmarshaler，
// 多数场景可直接内嵌 Network 字段；WireNetwork 适用于需要
// 显式字符串字段的文档型存储与外部接口契约。
type WireNetwork struct {
	Cidr string `json:"cidr" bson:"cidr" yaml:"cidr"`
}

// WireNetworkFrom 从 [Network] 创建 WireNetwork。
func WireNetworkFrom(n Network) WireNetwork {
	return WireNetwork{Cidr: n.String()}
}

// ToNetwork 把 WireNetwork 解析回 [Network]。
// 非规范形式的 cidr（基址含主机位）在解析时被规范化。
func (w WireNetwork) ToNetwork() (Network, error) {
	n, err := Parse(w.Cidr)
	if err != nil {
		return Network{}, fmt.Errorf("wire network %q: %w", w.Cidr, err)
	}
	return n, nil
}

// IsZero 报告 w 是否为零值。
// 零值 WireNetwork 的 Cidr 是空字符串。
func (w WireNetwork) IsZero() bool {
	return w.Cidr == ""
}

// String 返回 Cidr 字段原文。
func (w WireNetwork) String() string {
	return w.Cidr
}

// WireNetworksFrom 批量转换网络列表为序列化载体。
// 空切片或 nil 返回 nil。
func WireNetworksFrom(nets []Network) []WireNetwork {
	if len(nets) == 0 {
		return nil
	}
	ws := make([]WireNetwork, len(nets))
	for i, n := range nets {
		ws[i] = WireNetworkFrom(n)
	}
	return ws
}

// WireNetworksTo 批量解析序列化载体为网络列表。
// 任一条目失败即返回错误，并携带失败条目的下标。
// 空切片或 nil 返回 (nil, nil)。
func WireNetworksTo(ws []WireNetwork) ([]Network, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	nets := make([]Network, len(ws))
	for i, w := range ws {
		n, err := w.ToNetwork()
		if err != nil {
			return nil, fmt.Errorf("wire network [%d]: %w", i, err)
		}
		nets[i] = n
	}
	return nets, nil
}
