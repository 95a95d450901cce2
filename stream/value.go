package stream

import (
	"fmt"
	"math"
	"net"
	"net/netip"
	"strconv"

	"github.com/go-faster/errors"
)

// Kind is the tag of an OpResult.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindFloat
	KindInt
	KindIPv4
	KindMAC
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindIPv4:
		return "ipv4"
	case KindMAC:
		return "mac"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// OpResult is a single field value of a Tuple. The set of implementations is
// closed: Float, Int, IPv4, MAC and Empty.
type OpResult interface {
	// Kind returns the tag of the value.
	Kind() Kind
	// String renders the value the way the dump operators print it.
	String() string

	// canonical returns an encoding that is equal for two values iff they
	// are Equal. Used to build tuple keys.
	canonical() string
}

// Float is a 64-bit floating point value.
type Float float64

// Int is a 64-bit signed integer value.
type Int int64

// IPv4 is an IPv4 address.
type IPv4 [4]byte

// MAC is a 48-bit hardware address.
type MAC [6]byte

// Empty marks an absent value. It seeds the accumulator of a groupby.
type Empty struct{}

func (Float) Kind() Kind { return KindFloat }
func (Int) Kind() Kind   { return KindInt }
func (IPv4) Kind() Kind  { return KindIPv4 }
func (MAC) Kind() Kind   { return KindMAC }
func (Empty) Kind() Kind { return KindEmpty }

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'f', 6, 64) }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (a IPv4) String() string  { return netip.AddrFrom4(a).String() }
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}
func (Empty) String() string { return "Empty" }

// NaN payloads collapse to one key and -0 shares the key of +0, so that
// canonical equality agrees with Equal.
func (f Float) canonical() string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "f:NaN"
	case v == 0:
		return "f:0"
	}
	return "f:" + strconv.FormatFloat(v, 'g', -1, 64)
}
func (i Int) canonical() string   { return "i:" + strconv.FormatInt(int64(i), 10) }
func (a IPv4) canonical() string  { return "4:" + a.String() }
func (m MAC) canonical() string   { return "m:" + m.String() }
func (Empty) canonical() string   { return "e" }

// Equal reports whether a and b carry the same tag and the same value. Floats
// compare with IEEE equality except that NaN equals NaN.
func Equal(a, b OpResult) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if fa, ok := a.(Float); ok {
		fb := b.(Float)
		if math.IsNaN(float64(fa)) {
			return math.IsNaN(float64(fb))
		}
		return fa == fb
	}
	return a == b
}

func mismatch(want Kind, got OpResult) error {
	if got == nil {
		return errors.Wrapf(ErrTypeMismatch, "want %s, got nil", want)
	}
	return errors.Wrapf(ErrTypeMismatch, "want %s, got %s %s", want, got.Kind(), got)
}

// AsInt extracts the integer carried by v.
func AsInt(v OpResult) (int64, error) {
	if i, ok := v.(Int); ok {
		return int64(i), nil
	}
	return 0, mismatch(KindInt, v)
}

// AsFloat extracts the float carried by v.
func AsFloat(v OpResult) (float64, error) {
	if f, ok := v.(Float); ok {
		return float64(f), nil
	}
	return 0, mismatch(KindFloat, v)
}

// AsIPv4 extracts the address carried by v.
func AsIPv4(v OpResult) (IPv4, error) {
	if a, ok := v.(IPv4); ok {
		return a, nil
	}
	return IPv4{}, mismatch(KindIPv4, v)
}

// AsMAC extracts the hardware address carried by v.
func AsMAC(v OpResult) (MAC, error) {
	if m, ok := v.(MAC); ok {
		return m, nil
	}
	return MAC{}, mismatch(KindMAC, v)
}

// ParseIPv4 parses a dotted-quad address.
func ParseIPv4(s string) (IPv4, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return IPv4{}, errors.Wrapf(err, "parse ipv4 %q", s)
	}
	if !addr.Is4() {
		return IPv4{}, errors.Errorf("parse ipv4 %q: not an IPv4 address", s)
	}
	return IPv4(addr.As4()), nil
}

// MustIPv4 is like ParseIPv4 but panics on error. Meant for literals.
func MustIPv4(s string) IPv4 {
	a, err := ParseIPv4(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseMAC parses a colon separated 48-bit hardware address.
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MAC{}, errors.Wrapf(err, "parse mac %q", s)
	}
	if len(hw) != 6 {
		return MAC{}, errors.Errorf("parse mac %q: want 6 bytes, got %d", s, len(hw))
	}
	var m MAC
	copy(m[:], hw)
	return m, nil
}

// IPOrZero reads an address field of a flow export, where the literal "0"
// stands for an unknown address and becomes Int(0).
func IPOrZero(s string) (OpResult, error) {
	if s == "0" {
		return Int(0), nil
	}
	a, err := ParseIPv4(s)
	if err != nil {
		return nil, err
	}
	return a, nil
}
