package sources

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"

	"github.com/tarungka/sonata/stream"
)

// waltsColumns is the number of fields of a flow export line.
const waltsColumns = 7

// WaltsCSVSource reads one flow export file: headerless lines of
// src_ip,dst_ip,src_l4_port,dst_l4_port,packet_count,byte_count,epoch_id.
//
// The windows are taken from the epoch_id column, so the source emits its
// own resets: one per epoch id skipped over, and a last one at end of file.
// Every tuple carries the number of tuples read so far in its window under
// "tuples".
type WaltsCSVSource struct {
	path     string
	epochKey string

	file *os.File
	err  error
}

// NewWaltsCSVSource creates a WaltsCSVSource. Config keys: path (required),
// epoch_key (default "eid").
func NewWaltsCSVSource(cfg SourceConfig) (stream.Source, error) {
	path, err := cfg.required("path")
	if err != nil {
		return nil, err
	}
	return &WaltsCSVSource{
		path:     path,
		epochKey: cfg.string("epoch_key", stream.DefaultEpochKey),
	}, nil
}

// Open opens the file and starts reading it.
func (s *WaltsCSVSource) Open(ctx context.Context) (<-chan stream.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "open flow export")
	}
	s.file = f
	log.Debug().Str("path", s.path).Msg("Reading flow export")

	out := make(chan stream.Event)
	go func() {
		defer close(out)
		s.err = s.read(ctx, out)
		if s.err != nil && !errors.Is(s.err, context.Canceled) {
			log.Err(s.err).Str("path", s.path).Msg("Error reading flow export")
		}
	}()
	return out, nil
}

func (s *WaltsCSVSource) read(ctx context.Context, out chan<- stream.Event) error {
	send := func(ev stream.Event) error {
		select {
		case out <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var eid, count int64
	scanner := bufio.NewScanner(s.file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		tup, e, err := parseWaltsLine(text, s.epochKey)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", s.path, line)
		}

		count++
		for ; e > eid; eid++ {
			if err := send(stream.ResetEvent(stream.Tuple{
				s.epochKey: stream.Int(eid),
				"tuples":   stream.Int(count),
			})); err != nil {
				return err
			}
			count = 0
		}

		tup["tuples"] = stream.Int(count)
		if err := send(stream.Data(tup)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "read %s", s.path)
	}

	return send(stream.ResetEvent(stream.Tuple{
		s.epochKey: stream.Int(eid + 1),
		"tuples":   stream.Int(count),
	}))
}

func parseWaltsLine(text, epochKey string) (stream.Tuple, int64, error) {
	fields := strings.Split(text, ",")
	if len(fields) != waltsColumns {
		return nil, 0, errors.Errorf("want %d fields, got %d", waltsColumns, len(fields))
	}

	src, err := stream.IPOrZero(fields[0])
	if err != nil {
		return nil, 0, err
	}
	dst, err := stream.IPOrZero(fields[1])
	if err != nil {
		return nil, 0, err
	}

	var ints [5]int64
	for i := range ints {
		n, err := strconv.ParseInt(fields[i+2], 10, 64)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "field %q", stream.WaltsFields[i+2])
		}
		ints[i] = n
	}

	return stream.Tuple{
		"ipv4.src":     src,
		"ipv4.dst":     dst,
		"l4.sport":     stream.Int(ints[0]),
		"l4.dport":     stream.Int(ints[1]),
		"packet_count": stream.Int(ints[2]),
		"byte_count":   stream.Int(ints[3]),
		epochKey:       stream.Int(ints[4]),
	}, ints[4], nil
}

// Err returns the error that stopped the read, if any.
func (s *WaltsCSVSource) Err() error {
	return s.err
}

// EmitsFinalReset reports that the source closes its last window itself.
func (s *WaltsCSVSource) EmitsFinalReset() bool {
	return true
}

// Close closes the file.
func (s *WaltsCSVSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
