package sources

import (
	"strconv"

	"github.com/go-faster/errors"
)

// SourceConfig describes one input of a pipeline.
type SourceConfig struct {
	Name           string            `koanf:"name" json:"name"`
	ConnectionType string            `koanf:"type" json:"type"`
	Config         map[string]string `koanf:"config" json:"config"`
	Key            string            `koanf:"key" json:"key"`
}

func (c SourceConfig) required(key string) (string, error) {
	v := c.Config[key]
	if v == "" {
		return "", errors.Errorf("%s source: missing config value %q", c.ConnectionType, key)
	}
	return v, nil
}

func (c SourceConfig) string(key, def string) string {
	if v, ok := c.Config[key]; ok && v != "" {
		return v
	}
	return def
}

func (c SourceConfig) int(key string, def int64) (int64, error) {
	v, ok := c.Config[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s source: config value %q", c.ConnectionType, key)
	}
	return n, nil
}

func (c SourceConfig) float(key string, def float64) (float64, error) {
	v, ok := c.Config[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s source: config value %q", c.ConnectionType, key)
	}
	return f, nil
}
