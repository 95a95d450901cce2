package sinks

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/tarungka/sonata/stream"
)

// WriterSink formats tuples onto an io.Writer.
type WriterSink struct {
	stream.Operator
	name string

	buf   *bufio.Writer
	close func() error
}

// NewStdoutSink creates a sink printing to standard output.
func NewStdoutSink(cfg SinkConfig) (Sink, error) {
	s, err := newWriterSink(cfg, os.Stdout, nil)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewFileSink creates a sink writing to the file at config key file_path.
// The file is appended to unless truncate is set.
func NewFileSink(cfg SinkConfig) (Sink, error) {
	path, err := cfg.required("file_path")
	if err != nil {
		return nil, err
	}
	truncate, err := cfg.bool("truncate", false)
	if err != nil {
		return nil, err
	}

	log.Trace().Str("file_path", path).Msg("Preparing to open file for writing")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Err(err).Str("directory", dir).Msg("Failed to create parent directories")
		return nil, errors.Wrap(err, "create parent directories")
	}

	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		if _, err := os.Stat(path); err == nil {
			log.Warn().Str("file_path", path).Msg("File already exists; appending to it")
		}
		flags |= os.O_APPEND
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		log.Err(err).Str("file_path", path).Msg("Failed to open file")
		return nil, errors.Wrap(err, "open file")
	}

	s, err := newWriterSink(cfg, file, file.Close)
	if err != nil {
		return nil, multierr.Append(err, file.Close())
	}
	return s, nil
}

func newWriterSink(cfg SinkConfig, w io.Writer, closeFn func() error) (*WriterSink, error) {
	buf := bufio.NewWriter(w)
	op, err := cfg.formatter(buf)
	if err != nil {
		return nil, err
	}
	return &WriterSink{Operator: op, name: cfg.Name, buf: buf, close: closeFn}, nil
}

// Reset forwards ctx to the formatter and flushes what the window produced.
func (s *WriterSink) Reset(ctx stream.Tuple) error {
	if err := s.Operator.Reset(ctx); err != nil {
		return err
	}
	return s.buf.Flush()
}

// Close flushes buffered output and closes the underlying file, if any.
func (s *WriterSink) Close() error {
	err := s.buf.Flush()
	if s.close != nil {
		log.Debug().Str("sink", s.name).Msg("Closing file sink")
		err = multierr.Append(err, s.close())
		s.close = nil
	}
	return err
}
