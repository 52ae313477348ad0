package xcidr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"192.168.1.100/24", "192.168.1.0/24"},
		{"0.0.0.0/0", "0.0.0.0/0"},
		{"2001:db8::ff/64", "2001:db8::/64"},
		{"::/0", "::/0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MustParse(tt.input).String())
	}

	var zero Network
	assert.Equal(t, "0.0.0.0/0", zero.String())
}

func TestDescribe(t *testing.T) {
	want := "Network:   192.168.168.0/24\n" +
		"Family:    IPv4\n" +
		"Netmask:   255.255.255.0\n" +
		"Wildcard:  0.0.0.255\n" +
		"Broadcast: 192.168.168.255\n" +
		"First:     192.168.168.1\n" +
		"Last:      192.168.168.254\n" +
		"Addresses: 256\n" +
		"Usable:    254\n" +
		"Class:     private"
	assert.Equal(t, want, MustParse("192.168.168.100/24").Describe())
}

func TestDescribeHostRoute(t *testing.T) {
	// /32 没有可用地址区间，首尾以占位符展示
	got := MustParse("203.0.113.7/32").Describe()
	assert.Contains(t, got, "Network:   203.0.113.7/32")
	assert.Contains(t, got, "First:     -")
	assert.Contains(t, got, "Last:      -")
	assert.Contains(t, got, "Usable:    0")
	assert.Contains(t, got, "Class:     documentation")
}

func TestDescribeV6(t *testing.T) {
	// IPv6 没有广播的说法，末地址单独标注
	got := MustParse("2001:db8::/64").Describe()
	assert.Contains(t, got, "Family:    IPv6")
	assert.Contains(t, got, "Last addr: 2001:db8::ffff:ffff:ffff:ffff")
	assert.NotContains(t, got, "Broadcast:")
}

func TestMarshalText(t *testing.T) {
	n := MustParse("192.168.1.0/24")
	text, err := n.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.0/24", string(text))

	var back Network
	require.NoError(t, back.UnmarshalText(text))
	assert.True(t, n.Equal(back))
}

func TestUnmarshalTextCanonicalizes(t *testing.T) {
	var n Network
	require.NoError(t, n.UnmarshalText([]byte("10.0.0.55/8")))
	assert.Equal(t, "10.0.0.0/8", n.String())

	assert.ErrorIs(t, n.UnmarshalText([]byte("")), ErrEmptyInput)
	assert.ErrorIs(t, n.UnmarshalText([]byte("bogus")), ErrInvalidAddress)
}

func TestNetworkJSON(t *testing.T) {
	// TextMarshaler 让 Network 在 JSON 中表现为字符串
	type route struct {
		Dst Network `json:"dst"`
	}

	data, err := json.Marshal(route{Dst: MustParse("10.1.0.0/16")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dst":"10.1.0.0/16"}`, string(data))

	var decoded route
	require.NoError(t, json.Unmarshal([]byte(`{"dst":"192.168.5.77/24"}`), &decoded))
	assert.Equal(t, "192.168.5.0/24", decoded.Dst.String())

	assert.Error(t, json.Unmarshal([]byte(`{"dst":"oops"}`), &decoded))
}
