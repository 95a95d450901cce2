package pipeline

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"github.com/tarungka/sonata/queries"
	"github.com/tarungka/sonata/sinks"
	"github.com/tarungka/sonata/sources"
	"github.com/tarungka/sonata/stream"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type LogConfig struct {
	Level       string `koanf:"level" json:"level"`
	Development bool   `koanf:"development" json:"development"`
	File        string `koanf:"file" json:"file"`
}

type ServerConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Addr    string `koanf:"addr" json:"addr"`
}

// QueryConfig binds a catalogue query to its inputs and output.
type QueryConfig struct {
	Name    string                 `koanf:"name" json:"name"`
	Query   string                 `koanf:"query" json:"query"`
	Params  map[string]float64     `koanf:"params" json:"params"`
	Sources []sources.SourceConfig `koanf:"sources" json:"sources"`
	Sink    sinks.SinkConfig       `koanf:"sink" json:"sink"`
}

// Config is the whole configuration of a sonata process.
type Config struct {
	Log         LogConfig     `koanf:"log" json:"log"`
	Server      ServerConfig  `koanf:"server" json:"server"`
	ErrorPolicy string        `koanf:"error_policy" json:"error_policy"`
	Parallelism int           `koanf:"parallelism" json:"parallelism"`
	Pipelines   []QueryConfig `koanf:"pipelines" json:"pipelines"`
}

// LoadConfig unmarshals the loaded configuration, filling in defaults.
func LoadConfig(ko *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := ko.Unmarshal("", &cfg); err != nil {
		log.Err(err).Msg("Error when un-marshaling config")
		return nil, errors.Wrap(err, "unmarshal config")
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Parallelism <= 0 {
		c.Parallelism = len(c.Pipelines)
	}
	for i := range c.Pipelines {
		if c.Pipelines[i].Name == "" {
			c.Pipelines[i].Name = fmt.Sprintf("%s-%d", c.Pipelines[i].Query, i)
		}
	}
}

// Policy returns the parsed error policy.
func (c *Config) Policy() (stream.ErrorPolicy, error) {
	return stream.ParseErrorPolicy(c.ErrorPolicy)
}

// Validate checks that every pipeline names a known query with usable
// parameters and the number of sources that query consumes.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if len(c.Pipelines) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no pipelines configured")
	}

	names := make(map[string]bool, len(c.Pipelines))
	for _, qc := range c.Pipelines {
		if names[qc.Name] {
			return errors.Wrapf(ErrInvalidConfig, "duplicate pipeline name %q", qc.Name)
		}
		names[qc.Name] = true

		if err := qc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one pipeline. A single input query accepts any number of
// sources, running one copy of the query per source into the shared sink.
func (qc QueryConfig) Validate() error {
	spec, ok := queries.Lookup(qc.Query)
	if !ok {
		return errors.Wrapf(ErrInvalidConfig, "pipeline %q: unknown query %q", qc.Name, qc.Query)
	}
	if err := queries.Params(qc.Params).Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "pipeline %q: %v", qc.Name, err)
	}

	n := len(qc.Sources)
	switch {
	case n == 0:
		return errors.Wrapf(ErrInvalidConfig, "pipeline %q: no sources", qc.Name)
	case spec.Inputs > 1 && n != spec.Inputs:
		return errors.Wrapf(ErrInvalidConfig, "pipeline %q: query %q takes %d sources, got %d",
			qc.Name, qc.Query, spec.Inputs, n)
	}
	if spec.Timed {
		for i, src := range qc.Sources {
			if src.ConnectionType == sources.TypeWaltsCSV {
				return errors.Wrapf(ErrInvalidConfig, "pipeline %q: source %d: query %q needs packet time, %s tuples carry none",
					qc.Name, i, qc.Query, sources.TypeWaltsCSV)
			}
		}
	}
	return nil
}
