package xcidr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "CIDR slash",
			input: "192.168.1.0/24",
			want:  "192.168.1.0/24",
		},
		{
			name:  "CIDR slash with host bits",
			input: "192.168.168.100/24",
			want:  "192.168.168.0/24",
		},
		{
			name:  "CIDR space separator",
			input: "192.168.1.0 24",
			want:  "192.168.1.0/24",
		},
		{
			name:  "netmask form",
			input: "10.0.0.1 255.255.255.0",
			want:  "10.0.0.0/24",
		},
		{
			name:  "netmask form full",
			input: "192.168.1.1 255.255.255.255",
			want:  "192.168.1.1/32",
		},
		{
			name:  "single address class A",
			input: "10.0.0.1",
			want:  "10.0.0.0/8",
		},
		{
			name:  "single address class B",
			input: "172.16.5.5",
			want:  "172.16.0.0/16",
		},
		{
			name:  "single address class C",
			input: "192.168.1.1",
			want:  "192.168.1.0/24",
		},
		{
			name:  "single IPv6 address",
			input: "2001:db8::1",
			want:  "2001:db8::/64",
		},
		{
			name:  "IPv6 CIDR",
			input: "2001:db8::/32",
			want:  "2001:db8::/32",
		},
		{
			name:  "IPv6 CIDR with host bits",
			input: "2001:db8::1/32",
			want:  "2001:db8::/32",
		},
		{
			name:  "IPv4-mapped CIDR with IPv6 length",
			input: "::ffff:192.168.1.0/120",
			want:  "192.168.1.0/24",
		},
		{
			name:  "IPv4-mapped CIDR with IPv4 length",
			input: "::ffff:192.168.1.0/24",
			want:  "192.168.1.0/24",
		},
		{
			name:  "whitespace trimmed",
			input: "  192.168.1.0/24  ",
			want:  "192.168.1.0/24",
		},
		{
			name:  "zero prefix",
			input: "0.0.0.0/0",
			want:  "0.0.0.0/0",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrEmptyInput,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: ErrEmptyInput,
		},
		{
			name:    "invalid address",
			input:   "300.0.0.1/24",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "not an address",
			input:   "invalid",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "prefix out of range IPv4",
			input:   "10.0.0.1/99",
			wantErr: ErrPrefixOutOfRange,
		},
		{
			name:    "prefix out of range IPv6",
			input:   "2001:db8::/129",
			wantErr: ErrPrefixOutOfRange,
		},
		{
			name:    "IPv4-mapped length between 33 and 95",
			input:   "::ffff:192.168.1.0/64",
			wantErr: ErrPrefixOutOfRange,
		},
		{
			name:    "non-contiguous netmask",
			input:   "10.0.0.1 255.0.255.0",
			wantErr: ErrInvalidNetmask,
		},
		{
			name:    "garbage netmask",
			input:   "10.0.0.1 garbage",
			wantErr: ErrInvalidNetmask,
		},
		{
			name:    "guess fails for class D",
			input:   "224.0.0.1",
			wantErr: ErrUnguessablePrefix,
		},
		{
			name:    "zone ID rejected",
			input:   "fe80::1%eth0",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "trailing slash",
			input:   "10.0.0.1/",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "slash only",
			input:   "/",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "too many tokens",
			input:   "10.0.0.1 255.255.255.0 extra",
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "IPv6 mask for IPv4 address",
			input:   "10.0.0.1 ffff::",
			wantErr: ErrMixedFamily,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParseSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "dash separated netmask form",
			input: "10.0.0.1 - 255.255.255.0",
			want:  "10.0.0.0/24",
		},
		{
			name:  "quoted CIDR",
			input: `"192.168.0.0/24"`,
			want:  "192.168.0.0/24",
		},
		{
			name:  "tabs and runs of spaces",
			input: "10.0.0.1\t\t255.255.0.0",
			want:  "10.0.0.0/16",
		},
		{
			name:  "parenthesized",
			input: "(2001:db8::/32)",
			want:  "2001:db8::/32",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input, WithSanitize())
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}

	// 不开启清洗时脏输入按原样解析并失败
	_, err := Parse("10.0.0.1 - 255.255.255.0")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.0.0.1 - 255.255.255.0", "10.0.0.1 255.255.255.0"},
		{`"192.168.0.0/24"`, "192.168.0.0/24"},
		{"  a b  c  ", "a b c"},
		{"", ""},
		{"!@#$%^&*()", ""},
		{"2001:db8::/32", "2001:db8::/32"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.input), "Sanitize(%q)", tt.input)
	}
}

func TestParseWithGuesser(t *testing.T) {
	fixed := GuesserFunc(func(addr netip.Addr) (int, bool) {
		if AddrFamily(addr) == FamilyV4 {
			return 30, true
		}
		return 0, false
	})

	n, err := Parse("224.0.0.1", WithGuesser(fixed))
	require.NoError(t, err)
	assert.Equal(t, "224.0.0.0/30", n.String())

	// 自定义推断拒绝时报 ErrUnguessablePrefix
	_, err = Parse("2001:db8::1", WithGuesser(fixed))
	assert.ErrorIs(t, err, ErrUnguessablePrefix)

	// nil 推断器不生效，保持默认策略
	n, err = Parse("10.0.0.1", WithGuesser(nil))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8", n.String())
}

func TestClassfulGuesser(t *testing.T) {
	tests := []struct {
		addr    string
		wantLen int
		wantOK  bool
	}{
		{"0.0.0.1", 8, true},
		{"9.255.255.255", 8, true},
		{"127.0.0.1", 8, true},
		{"128.0.0.1", 16, true},
		{"172.16.0.1", 16, true},
		{"191.255.0.1", 16, true},
		{"192.0.0.1", 24, true},
		{"223.255.255.255", 24, true},
		{"224.0.0.1", 0, false},
		{"255.255.255.255", 0, false},
		{"2001:db8::1", 64, true},
		{"::1", 64, true},
	}

	g := ClassfulGuesser{}
	for _, tt := range tests {
		got, ok := g.GuessPrefixLen(netip.MustParseAddr(tt.addr))
		assert.Equal(t, tt.wantOK, ok, "GuessPrefixLen(%s) ok", tt.addr)
		assert.Equal(t, tt.wantLen, got, "GuessPrefixLen(%s) len", tt.addr)
	}

	// 无效地址无法推断
	_, ok := g.GuessPrefixLen(netip.Addr{})
	assert.False(t, ok)
}

func TestMustParse(t *testing.T) {
	n := MustParse("192.168.1.0/24")
	assert.Equal(t, "192.168.1.0/24", n.String())

	assert.Panics(t, func() {
		MustParse("not a network")
	})
	assert.Panics(t, func() {
		MustParse("")
	})
}

func TestParseAll(t *testing.T) {
	nets, err := ParseAll([]string{"10.0.0.0/8", "192.168.1.1", "2001:db8::/32"})
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.Equal(t, "10.0.0.0/8", nets[0].String())
	assert.Equal(t, "192.168.1.0/24", nets[1].String())
	assert.Equal(t, "2001:db8::/32", nets[2].String())

	// 失败条目携带下标
	_, err = ParseAll([]string{"10.0.0.0/8", "bogus"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Contains(t, err.Error(), "[1]")

	// 空输入
	nets, err = ParseAll(nil)
	require.NoError(t, err)
	assert.Nil(t, nets)
}

func TestParseRoundTrip(t *testing.T) {
	// String 输出重新解析后必须得到同一网络
	inputs := []string{
		"0.0.0.0/0",
		"10.0.0.0/8",
		"192.168.168.0/24",
		"255.255.255.255/32",
		"::/0",
		"2001:db8::/32",
		"2001:db8::1/128",
		"fe80::/10",
	}
	for _, s := range inputs {
		n := MustParse(s)
		back, err := Parse(n.String())
		require.NoError(t, err, "re-parse %q", n.String())
		assert.True(t, n.Equal(back), "round-trip %q != %q", s, back)
	}
}
