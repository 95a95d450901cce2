package stream

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packet() Tuple {
	return Tuple{
		"time":       Float(0),
		"ipv4.src":   MustIPv4("10.0.0.1"),
		"ipv4.dst":   MustIPv4("10.0.0.2"),
		"ipv4.proto": Int(6),
		"l4.flags":   Int(2),
	}
}

func TestTupleProject(t *testing.T) {
	p := packet().Project("ipv4.dst", "missing")
	assert.Equal(t, Tuple{"ipv4.dst": MustIPv4("10.0.0.2")}, p)
	assert.Empty(t, packet().Project())
}

func TestUnionLeftPrecedence(t *testing.T) {
	a := Tuple{"x": Int(1), "y": Int(2)}
	b := Tuple{"y": Int(20), "z": Int(30)}
	assert.Equal(t, Tuple{"x": Int(1), "y": Int(2), "z": Int(30)}, Union(a, b))
	assert.Equal(t, Tuple{"x": Int(1), "y": Int(20), "z": Int(30)}, Union(b, a))

	// inputs are untouched
	assert.Len(t, a, 2)
	assert.Len(t, b, 2)
}

func TestUnionProjectionIdentity(t *testing.T) {
	tup := packet()
	for _, keys := range [][]string{
		nil,
		{"time"},
		{"ipv4.src", "ipv4.dst"},
		{"ipv4.proto", "nope"},
		tup.Keys(),
	} {
		assert.True(t, Union(tup, tup.Project(keys...)).Equal(tup), "keys %v", keys)
	}
}

func TestRename(t *testing.T) {
	out := Rename([]RenamePair{
		{From: "ipv4.dst", To: "host"},
		{From: "missing", To: "other"},
	}, packet())
	assert.Equal(t, Tuple{"host": MustIPv4("10.0.0.2")}, out)
}

func TestTupleKeyOrderIndependent(t *testing.T) {
	a := Tuple{}
	a["b"] = Int(2)
	a["a"] = Int(1)
	b := Tuple{"a": Int(1), "b": Int(2)}

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.Equal(b))
}

func TestTupleKeyDistinguishesKinds(t *testing.T) {
	assert.NotEqual(t, Tuple{"a": Int(1)}.Key(), Tuple{"a": Float(1)}.Key())
	assert.NotEqual(t, Tuple{"a": Int(1)}.Key(), Tuple{"b": Int(1)}.Key())
	assert.NotEqual(t, Tuple{"a": Int(0)}.Key(), Tuple{"a": Empty{}}.Key())
	assert.NotEqual(t, Tuple{}.Key(), Tuple{"a": Empty{}}.Key())
}

func TestTupleKeyAgreesWithEqual(t *testing.T) {
	nan := Tuple{"v": Float(math.NaN())}
	assert.True(t, nan.Equal(Tuple{"v": Float(math.NaN())}))
	assert.Equal(t, nan.Key(), Tuple{"v": Float(math.NaN())}.Key())

	zero := Tuple{"v": Float(0)}
	negZero := Tuple{"v": Float(math.Copysign(0, -1))}
	assert.True(t, zero.Equal(negZero))
	assert.Equal(t, zero.Key(), negZero.Key())
}

func TestTupleLookup(t *testing.T) {
	tup := packet()

	n, err := tup.LookupInt("ipv4.proto")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	_, err = tup.LookupInt("time")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = tup.LookupFloat("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	a, err := tup.LookupIPv4("ipv4.src")
	require.NoError(t, err)
	assert.Equal(t, MustIPv4("10.0.0.1"), a)
}

func TestTupleWith(t *testing.T) {
	tup := Tuple{"a": Int(1)}
	out := tup.With("b", Int(2))
	assert.Equal(t, Tuple{"a": Int(1), "b": Int(2)}, out)
	assert.Len(t, tup, 1)
}

func TestTupleString(t *testing.T) {
	tup := Tuple{"eid": Int(3), "cons": Int(50)}
	assert.Equal(t, `"cons" => 50, "eid" => 3, `, tup.String())
}
