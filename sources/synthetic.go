package sources

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/tarungka/sonata/stream"
)

// Packet header defaults of the generated traffic.
var (
	defaultEthSrc = stream.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	defaultEthDst = stream.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
)

const (
	ethertypeIPv4 = 0x0800
	protoTCP      = 6
)

// SyntheticSource generates a fixed number of identical TCP packets, one
// time unit apart.
type SyntheticSource struct {
	count  int64
	start  float64
	step   float64
	spread int64

	src, dst     stream.IPv4
	sport, dport int64
	proto, flags int64
}

// NewSyntheticSource creates a SyntheticSource. Config keys, all optional:
// count (20), start (0), step (1), src and dst (127.0.0.1), sport (440),
// dport (50000), proto (6), flags (10), and spread (1): the number of
// distinct source addresses to cycle through, counting up from src.
func NewSyntheticSource(cfg SourceConfig) (stream.Source, error) {
	s := &SyntheticSource{}
	var err error

	ints := []struct {
		key string
		def int64
		dst *int64
	}{
		{"count", 20, &s.count},
		{"sport", 440, &s.sport},
		{"dport", 50000, &s.dport},
		{"proto", protoTCP, &s.proto},
		{"flags", 10, &s.flags},
		{"spread", 1, &s.spread},
	}
	for _, f := range ints {
		if *f.dst, err = cfg.int(f.key, f.def); err != nil {
			return nil, err
		}
	}
	if s.count < 0 {
		return nil, errors.Errorf("synthetic source: negative count %d", s.count)
	}
	if s.spread < 1 {
		return nil, errors.Errorf("synthetic source: spread must be at least 1, got %d", s.spread)
	}

	if s.start, err = cfg.float("start", 0); err != nil {
		return nil, err
	}
	if s.step, err = cfg.float("step", 1); err != nil {
		return nil, err
	}

	if s.src, err = stream.ParseIPv4(cfg.string("src", "127.0.0.1")); err != nil {
		return nil, err
	}
	if s.dst, err = stream.ParseIPv4(cfg.string("dst", "127.0.0.1")); err != nil {
		return nil, err
	}
	return s, nil
}

// Packet returns the i-th generated packet.
func (s *SyntheticSource) Packet(i int64) stream.Tuple {
	src := s.src
	if off := i % s.spread; off > 0 {
		n := uint32(src[0])<<24 | uint32(src[1])<<16 | uint32(src[2])<<8 | uint32(src[3])
		n += uint32(off)
		src = stream.IPv4{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}

	return stream.Tuple{
		"time": stream.Float(s.start + float64(i)*s.step),

		"eth.src":       defaultEthSrc,
		"eth.dst":       defaultEthDst,
		"eth.ethertype": stream.Int(ethertypeIPv4),

		"ipv4.hlen":  stream.Int(20),
		"ipv4.proto": stream.Int(s.proto),
		"ipv4.len":   stream.Int(60),
		"ipv4.src":   src,
		"ipv4.dst":   s.dst,

		"l4.sport": stream.Int(s.sport),
		"l4.dport": stream.Int(s.dport),
		"l4.flags": stream.Int(s.flags),
	}
}

// Open starts generating packets.
func (s *SyntheticSource) Open(ctx context.Context) (<-chan stream.Event, error) {
	out := make(chan stream.Event)
	go func() {
		defer close(out)
		for i := int64(0); i < s.count; i++ {
			select {
			case out <- stream.Data(s.Packet(i)):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Err always returns nil.
func (s *SyntheticSource) Err() error { return nil }

// Close is a no-op.
func (s *SyntheticSource) Close() error { return nil }
