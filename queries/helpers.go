package queries

import "github.com/tarungka/sonata/stream"

// Parameter names read by the catalogue.
const (
	ParamEpochWidth = "epoch_width"
	ParamThreshold  = "threshold"
)

// TCP flag combinations matched by the detectors.
const (
	protoTCP = 6

	flagFIN    = 1
	flagSYN    = 2
	flagACK    = 16
	flagSYNACK = 18

	portSSH = 22
)

// FilterProtoFlags accepts packets of the given IP protocol whose l4.flags
// equal flags exactly.
func FilterProtoFlags(proto, flags int64) stream.Predicate {
	return func(tup stream.Tuple) (bool, error) {
		p, err := tup.LookupInt("ipv4.proto")
		if err != nil {
			return false, err
		}
		f, err := tup.LookupInt("l4.flags")
		if err != nil {
			return false, err
		}
		return p == proto && f == flags, nil
	}
}

// FilterProtoDport accepts packets of the given IP protocol sent to dport.
func FilterProtoDport(proto, dport int64) stream.Predicate {
	return func(tup stream.Tuple) (bool, error) {
		p, err := tup.LookupInt("ipv4.proto")
		if err != nil {
			return false, err
		}
		d, err := tup.LookupInt("l4.dport")
		if err != nil {
			return false, err
		}
		return p == proto && d == dport, nil
	}
}

// FilterProto accepts packets of the given IP protocol.
func FilterProto(proto int64) stream.Predicate {
	return func(tup stream.Tuple) (bool, error) {
		p, err := tup.LookupInt("ipv4.proto")
		if err != nil {
			return false, err
		}
		return p == proto, nil
	}
}

// filterTCPFin accepts TCP packets with the FIN bit set.
func filterTCPFin(tup stream.Tuple) (bool, error) {
	p, err := tup.LookupInt("ipv4.proto")
	if err != nil {
		return false, err
	}
	f, err := tup.LookupInt("l4.flags")
	if err != nil {
		return false, err
	}
	return p == protoTCP && f&flagFIN == flagFIN, nil
}

// RemoveEthKeys drops the link layer addresses of a packet.
func RemoveEthKeys(tup stream.Tuple) (stream.Tuple, error) {
	out := tup.Clone()
	delete(out, "eth.src")
	delete(out, "eth.dst")
	return out, nil
}

// combine returns a map function storing f(a, b) under out, where a and b
// are the integer fields named a and b.
func combine(out, a, b string, f func(x, y int64) int64) stream.MapFunction {
	return func(tup stream.Tuple) (stream.Tuple, error) {
		x, err := tup.LookupInt(a)
		if err != nil {
			return nil, err
		}
		y, err := tup.LookupInt(b)
		if err != nil {
			return nil, err
		}
		return tup.With(out, stream.Int(f(x, y))), nil
	}
}

func sum(x, y int64) int64  { return x + y }
func diff(x, y int64) int64 { return x - y }

// quot divides x by y, yielding 0 for y == 0.
func quot(x, y int64) int64 {
	if y == 0 {
		return 0
	}
	return x / y
}

// rename is a grouping function relabelling one field.
func rename(from, to string) stream.GroupingFunc {
	return stream.RenameKeys(stream.RenamePair{From: from, To: to})
}
