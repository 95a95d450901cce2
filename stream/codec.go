package stream

import (
	"github.com/go-faster/errors"

	"github.com/tarungka/sonata/internal/utils"
)

// wireValue is the msgpack form of an OpResult.
type wireValue struct {
	Kind  Kind    `codec:"k"`
	Int   int64   `codec:"i,omitempty"`
	Float float64 `codec:"f,omitempty"`
	Bytes []byte  `codec:"b,omitempty"`
}

func toWire(v OpResult) (wireValue, error) {
	switch x := v.(type) {
	case Float:
		return wireValue{Kind: KindFloat, Float: float64(x)}, nil
	case Int:
		return wireValue{Kind: KindInt, Int: int64(x)}, nil
	case IPv4:
		return wireValue{Kind: KindIPv4, Bytes: x[:]}, nil
	case MAC:
		return wireValue{Kind: KindMAC, Bytes: x[:]}, nil
	case Empty:
		return wireValue{Kind: KindEmpty}, nil
	default:
		return wireValue{}, errors.Errorf("unsupported value %T", v)
	}
}

func fromWire(w wireValue) (OpResult, error) {
	switch w.Kind {
	case KindFloat:
		return Float(w.Float), nil
	case KindInt:
		return Int(w.Int), nil
	case KindIPv4:
		if len(w.Bytes) != 4 {
			return nil, errors.Errorf("ipv4: want 4 bytes, got %d", len(w.Bytes))
		}
		return IPv4(w.Bytes), nil
	case KindMAC:
		if len(w.Bytes) != 6 {
			return nil, errors.Errorf("mac: want 6 bytes, got %d", len(w.Bytes))
		}
		return MAC(w.Bytes), nil
	case KindEmpty:
		return Empty{}, nil
	default:
		return nil, errors.Errorf("unknown kind %d", w.Kind)
	}
}

// EncodeTuple encodes tup with msgpack.
func EncodeTuple(tup Tuple) ([]byte, error) {
	m := make(map[string]wireValue, len(tup))
	for k, v := range tup {
		w, err := toWire(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		m[k] = w
	}
	buf, err := utils.EncodeMsgPack(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode tuple")
	}
	return buf.Bytes(), nil
}

// DecodeTuple decodes a tuple produced by EncodeTuple.
func DecodeTuple(b []byte) (Tuple, error) {
	var m map[string]wireValue
	if err := utils.DecodeMsgPack(b, &m); err != nil {
		return nil, errors.Wrap(err, "decode tuple")
	}
	tup := make(Tuple, len(m))
	for k, w := range m {
		v, err := fromWire(w)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		tup[k] = v
	}
	return tup, nil
}
