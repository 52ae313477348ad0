package xcidr

import (
	"math"
	"net/netip"
	"testing"
)

// ============================================================
// 解析往返
// ============================================================

// FuzzParseRoundTrip 验证任何解析成功的输入，其规范字符串
// 再次解析后得到同一网络。
func FuzzParseRoundTrip(f *testing.F) {
	f.Add("192.168.168.100/24")
	f.Add("10.0.0.1 255.255.255.0")
	f.Add("10.0.0.1")
	f.Add("0.0.0.0/0")
	f.Add("255.255.255.255/32")
	f.Add("::/0")
	f.Add("2001:db8::/32")
	f.Add("::ffff:192.168.1.0/120")
	f.Add("fe80::1%eth0")
	f.Add("10.0.0.1///")
	f.Add("999.1.1.1")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		n, err := Parse(input)
		if err != nil {
			return
		}

		s := n.String()
		back, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) 成功但其 String 形式 %q 解析失败: %v", input, s, err)
		}
		if !n.Equal(back) {
			t.Errorf("往返不一致: Parse(%q) = %v, Parse(%q) = %v", input, n, s, back)
		}
		if n.Hash() != back.Hash() {
			t.Errorf("相等网络的哈希不一致: %v", n)
		}
		// 规范形式是不动点
		if back.String() != s {
			t.Errorf("String 不稳定: %q -> %q", s, back.String())
		}
	})
}

// ============================================================
// 掩码互逆
// ============================================================

// FuzzNetmaskRoundTrip 验证前缀长度与掩码的互相推导在
// 全部合法取值上互逆。
func FuzzNetmaskRoundTrip(f *testing.F) {
	f.Add(0, false)
	f.Add(24, false)
	f.Add(32, false)
	f.Add(64, true)
	f.Add(128, true)
	f.Add(-1, false)
	f.Add(129, true)

	f.Fuzz(func(t *testing.T, plen int, v6 bool) {
		fam := FamilyV4
		if v6 {
			fam = FamilyV6
		}

		mask, err := Netmask(plen, fam)
		if err != nil {
			if plen >= 0 && plen <= fam.Bits() {
				t.Fatalf("Netmask(%d, %s) 对合法输入报错: %v", plen, fam, err)
			}
			return
		}

		back, err := PrefixLenFromNetmask(mask)
		if err != nil {
			t.Fatalf("PrefixLenFromNetmask(%s) 失败: %v", mask, err)
		}
		if back != plen {
			t.Errorf("掩码往返不一致: /%d -> %s -> /%d", plen, mask, back)
		}
		if BitsSet(mask) != plen {
			t.Errorf("BitsSet(%s) = %d, 期望 %d", mask, BitsSet(mask), plen)
		}
		if !IsValidNetmask(mask) {
			t.Errorf("IsValidNetmask(%s) = false", mask)
		}
	})
}

// ============================================================
// 划分守恒
// ============================================================

// FuzzSubnetSplit 验证任意合法划分的首尾子网与父网络对齐，
// 且随机访问与惰性枚举一致。
func FuzzSubnetSplit(f *testing.F) {
	f.Add("10.0.0.0/8", uint8(1))
	f.Add("192.168.1.0/24", uint8(2))
	f.Add("2001:db8::/32", uint8(32))
	f.Add("0.0.0.0/0", uint8(0))
	f.Add("255.255.255.255/32", uint8(3))

	f.Fuzz(func(t *testing.T, input string, extra uint8) {
		parent, err := Parse(input)
		if err != nil {
			return
		}
		newLen := parent.PrefixLen() + int(extra)
		r, err := parent.Subnet(newLen)
		if err != nil {
			if newLen <= parent.Family().Bits() {
				t.Fatalf("Subnet(%d) 对合法划分报错: %v", newLen, err)
			}
			return
		}

		first, last := r.First(), r.Last()
		if first.Addr() != parent.Addr() {
			t.Errorf("首个子网基址 %s 不等于父基址 %s", first.Addr(), parent.Addr())
		}
		if last.Broadcast() != parent.Broadcast() {
			t.Errorf("末个子网广播 %s 不等于父广播 %s", last.Broadcast(), parent.Broadcast())
		}
		if !parent.ContainsNetwork(first) || !parent.ContainsNetwork(last) {
			t.Errorf("子网越出父网络: %s / %s not in %s", first, last, parent)
		}

		at0, err := r.AtUint64(0)
		if err != nil || !at0.Equal(first) {
			t.Errorf("At(0) = %v (err %v), 期望 %v", at0, err, first)
		}

		// 小规模划分逐一核对枚举与计数
		if count, ok := r.CountUint64(); ok && count <= 64 {
			var seen uint64
			prev := Network{}
			for child := range r.All() {
				if !parent.ContainsNetwork(child) {
					t.Fatalf("子网 %s 越出父网络 %s", child, parent)
				}
				if seen > 0 && child.Compare(prev) <= 0 {
					t.Fatalf("子网失序: %s 不大于 %s", child, prev)
				}
				prev = child
				seen++
			}
			if seen != count {
				t.Errorf("枚举个数 %d 不等于计数 %d", seen, count)
			}
		}
	})
}

// ============================================================
// 归并包含
// ============================================================

// FuzzSupernetPair 验证合并成功时结果包含两个输入，
// 且互不包含的输入恰好缩短一位前缀。
func FuzzSupernetPair(f *testing.F) {
	f.Add("192.168.0.0/24", "192.168.1.0/24")
	f.Add("10.0.0.0/9", "10.128.0.0/9")
	f.Add("10.0.0.0/8", "10.1.0.0/16")
	f.Add("192.168.1.0/24", "192.168.2.0/24")
	f.Add("2001:db8::/33", "2001:db8:8000::/33")
	f.Add("0.0.0.0/0", "::/0")

	f.Fuzz(func(t *testing.T, sa, sb string) {
		a, errA := Parse(sa)
		b, errB := Parse(sb)
		if errA != nil || errB != nil {
			return
		}

		merged, err := Supernet(a, b)
		if err != nil {
			return
		}
		if !merged.ContainsNetwork(a) || !merged.ContainsNetwork(b) {
			t.Fatalf("Supernet(%s, %s) = %s 未包含全部输入", a, b, merged)
		}
		if !a.ContainsNetwork(b) && !b.ContainsNetwork(a) {
			if merged.PrefixLen() != a.PrefixLen()-1 {
				t.Errorf("相邻合并应缩短一位前缀: %s + %s = %s", a, b, merged)
			}
		}

		// 参数顺序无关
		swapped, err := Supernet(b, a)
		if err != nil || !merged.Equal(swapped) {
			t.Errorf("Supernet 不对称: %v vs %v (err %v)", merged, swapped, err)
		}
	})
}

// ============================================================
// 地址加法可逆
// ============================================================

// FuzzAddrAdd 验证加法成功后以相反偏移可以还原原地址。
func FuzzAddrAdd(f *testing.F) {
	f.Add("10.0.0.1", int64(1))
	f.Add("0.0.0.0", int64(-1))
	f.Add("255.255.255.255", int64(1))
	f.Add("2001:db8::", int64(1)<<40)
	f.Add("::", int64(math.MaxInt64))

	f.Fuzz(func(t *testing.T, input string, delta int64) {
		if delta == math.MinInt64 {
			// 相反数不可表示
			return
		}
		addr, err := netip.ParseAddr(input)
		if err != nil {
			return
		}

		sum, err := AddrAdd(addr, delta)
		if err != nil {
			return
		}
		back, err := AddrAdd(sum, -delta)
		if err != nil {
			t.Fatalf("AddrAdd(%s, %d) 成功但逆运算失败: %v", addr, delta, err)
		}
		// 快速路径会把 IPv4-mapped 地址还原成纯 IPv4
		if back != addr.Unmap() {
			t.Errorf("加法不可逆: %s + %d - %d = %s", addr, delta, delta, back)
		}
	})
}
