package sinks

import (
	"io"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/tarungka/sonata/stream"
)

// SinkConfig describes the output of a pipeline.
type SinkConfig struct {
	Name           string            `koanf:"name" json:"name"`
	ConnectionType string            `koanf:"type" json:"type"`
	Config         map[string]string `koanf:"config" json:"config"`
	Key            string            `koanf:"key" json:"key"`
}

// Output formats understood by the writer based sinks.
const (
	FormatDump  = "dump"
	FormatCSV   = "csv"
	FormatWalts = "walts"
)

func (c SinkConfig) required(key string) (string, error) {
	v := c.Config[key]
	if v == "" {
		return "", errors.Errorf("%s sink: missing config value %q", c.ConnectionType, key)
	}
	return v, nil
}

func (c SinkConfig) bool(key string, def bool) (bool, error) {
	v, ok := c.Config[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "%s sink: config value %q", c.ConnectionType, key)
	}
	return b, nil
}

// formatter builds the terminal operator writing to w in the configured
// format. Keys: format (dump), show_reset (false), header (true),
// static_name and static_value.
func (c SinkConfig) formatter(w io.Writer) (stream.Operator, error) {
	format := c.Config["format"]
	if format == "" {
		format = FormatDump
	}

	switch format {
	case FormatDump:
		showReset, err := c.bool("show_reset", false)
		if err != nil {
			return nil, err
		}
		return stream.NewDump(w, showReset), nil
	case FormatCSV:
		header, err := c.bool("header", true)
		if err != nil {
			return nil, err
		}
		var static *stream.StaticField
		if name := c.Config["static_name"]; name != "" {
			static = &stream.StaticField{Name: name, Value: c.Config["static_value"]}
		}
		return stream.NewCSVDump(w, static, header), nil
	case FormatWalts:
		return stream.NewWaltsCSVDump(w), nil
	default:
		return nil, errors.Errorf("%s sink: unknown format %q", c.ConnectionType, format)
	}
}
