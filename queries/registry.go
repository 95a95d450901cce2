// Package queries holds the catalogue of named network-security detectors,
// each one a composition of stream operators.
package queries

import (
	"sort"

	"github.com/go-faster/errors"

	"github.com/tarungka/sonata/stream"
)

var (
	// ErrUnknownQuery is returned by Build for names missing from the catalogue.
	ErrUnknownQuery = errors.New("unknown query")
	// ErrInvalidParams is returned by Build when a parameter is out of range.
	ErrInvalidParams = errors.New("invalid query parameters")
)

// Params overrides the constants of a query, such as epoch_width or
// threshold. Keys a query does not read are ignored.
type Params map[string]float64

// Float returns the parameter key, or def when unset.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the parameter key truncated to an integer, or def when unset.
func (p Params) Int(key string, def int64) int64 {
	if v, ok := p[key]; ok {
		return int64(v)
	}
	return def
}

// Validate checks the parameters every query shares.
func (p Params) Validate() error {
	if w, ok := p[ParamEpochWidth]; ok && !(w > 0) {
		return errors.Wrapf(ErrInvalidParams, "%s must be positive, got %v", ParamEpochWidth, w)
	}
	return nil
}

// Spec describes one query of the catalogue.
type Spec struct {
	Name        string
	Description string
	// Inputs is the number of packet streams the query consumes.
	Inputs int
	// Timed queries window on the time field of every packet.
	Timed bool
	// Build wires the query in front of next and returns one entry operator
	// per input.
	Build func(p Params, next stream.Operator) []stream.Operator
}

var registry = map[string]Spec{}

func register(s Spec) {
	if _, dup := registry[s.Name]; dup {
		panic("queries: duplicate query " + s.Name)
	}
	registry[s.Name] = s
}

func single(build func(Params, stream.Operator) stream.Operator) func(Params, stream.Operator) []stream.Operator {
	return func(p Params, next stream.Operator) []stream.Operator {
		return []stream.Operator{build(p, next)}
	}
}

// Lookup returns the query registered under name.
func Lookup(name string) (Spec, bool) {
	s, ok := registry[name]
	return s, ok
}

// Build wires the query registered under name in front of next.
func Build(name string, p Params, next stream.Operator) ([]stream.Operator, error) {
	s, ok := Lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownQuery, "%q", name)
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrapf(err, "query %q", name)
	}
	return s.Build(p, next), nil
}

// All returns every registered query sorted by name.
func All() []Spec {
	out := make([]Spec, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
