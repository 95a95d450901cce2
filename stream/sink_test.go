package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	var sb strings.Builder
	d := NewDump(&sb, true)
	require.NoError(t, d.Next(Tuple{"a": Int(1)}))
	require.NoError(t, d.Reset(Tuple{"eid": Int(0)}))
	assert.Equal(t, "\"a\" => 1, \n\"eid\" => 0, \n[reset]\n", sb.String())

	sb.Reset()
	d = NewDump(&sb, false)
	require.NoError(t, d.Reset(Tuple{"eid": Int(0)}))
	assert.Empty(t, sb.String())
}

func TestCSVDump(t *testing.T) {
	var sb strings.Builder
	d := NewCSVDump(&sb, &StaticField{Name: "query", Value: "q1"}, true)

	require.NoError(t, d.Next(Tuple{"eid": Int(0), "cons": Int(50), "ipv4.dst": MustIPv4("10.0.0.2")}))
	require.NoError(t, d.Reset(Tuple{}))
	require.NoError(t, d.Next(Tuple{"eid": Int(1), "cons": Int(41), "ipv4.dst": MustIPv4("10.0.0.3")}))

	assert.Equal(t, "query,cons,eid,ipv4.dst\n"+
		"q1,50,0,10.0.0.2\n"+
		"q1,41,1,10.0.0.3\n", sb.String())
}

func TestCSVDumpNoHeader(t *testing.T) {
	var sb strings.Builder
	d := NewCSVDump(&sb, nil, false)
	require.NoError(t, d.Next(Tuple{"b": Float(0.5), "a": Int(1)}))
	assert.Equal(t, "1,0.500000\n", sb.String())
}

func TestWaltsCSVDump(t *testing.T) {
	var sb strings.Builder
	d := NewWaltsCSVDump(&sb)

	require.NoError(t, d.Next(Tuple{
		"src_ip":       MustIPv4("10.0.0.1"),
		"dst_ip":       Int(0),
		"src_l4_port":  Int(443),
		"dst_l4_port":  Int(50000),
		"packet_count": Int(3),
		"byte_count":   Int(180),
		"epoch_id":     Int(7),
		"extra":        Int(1),
	}))
	assert.Equal(t, "10.0.0.1,0,443,50000,3,180,7\n", sb.String())

	assert.ErrorIs(t, d.Next(Tuple{"src_ip": Int(0)}), ErrKeyNotFound)
}

func TestMetaMeter(t *testing.T) {
	var sb strings.Builder
	static := "run-1"
	c := NewCollector()
	m := NewMetaMeter("after_filter", &sb, &static, c)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Next(Tuple{}))
	}
	require.NoError(t, m.Reset(Tuple{"eid": Int(0)}))
	require.NoError(t, m.Reset(Tuple{"eid": Int(1)}))
	require.NoError(t, m.Next(Tuple{}))
	require.NoError(t, m.Reset(Tuple{"eid": Int(2)}))

	assert.Equal(t, "0,after_filter,3,run-1\n1,after_filter,0,run-1\n2,after_filter,1,run-1\n", sb.String())
	assert.Len(t, c.Tuples(), 4)
	assert.Len(t, c.Resets(), 3)
}
