package stream

import "github.com/go-faster/errors"

// DefaultEpochKey is the field holding the window id when none is configured.
const DefaultEpochKey = "eid"

// KeyExtractor splits a tuple into the join key and the payload carried to
// the joined output.
type KeyExtractor func(tup Tuple) (key, val Tuple, err error)

// JoinOption configures NewJoin.
type JoinOption func(*joinState)

// WithEpochKey sets the field the join reads window ids from.
func WithEpochKey(key string) JoinOption {
	return func(s *joinState) {
		s.epochKey = key
	}
}

type side int

const (
	sideLeft side = iota
	sideRight
)

func (s side) String() string {
	if s == sideLeft {
		return "left"
	}
	return "right"
}

type pending struct {
	lookup Tuple
	val    Tuple
}

// joinState is shared by the two handles returned by NewJoin.
type joinState struct {
	next     Operator
	epochKey string

	tables  [2]map[string]pending
	epochs  [2]int64
	extract [2]KeyExtractor
}

// JoinSide is one input of an epoch synchronized equi-join. Both sides of a
// join share their state, so they must be driven from one goroutine.
type JoinSide struct {
	state *joinState
	side  side
}

// NewJoin creates an equi-join of two streams and returns the operators to
// wire as the terminal consumers of the left and right upstream branches.
//
// Tuples match when their extracted keys are equal and they belong to the
// same window. A stored tuple matches at most once. A reset is emitted to
// next for window e only once both inputs have moved past e.
func NewJoin(left, right KeyExtractor, next Operator, opts ...JoinOption) (*JoinSide, *JoinSide) {
	s := &joinState{
		next:     next,
		epochKey: DefaultEpochKey,
		tables:   [2]map[string]pending{make(map[string]pending), make(map[string]pending)},
		extract:  [2]KeyExtractor{left, right},
	}
	for _, opt := range opts {
		opt(s)
	}
	return &JoinSide{state: s, side: sideLeft}, &JoinSide{state: s, side: sideRight}
}

// advance moves this side's epoch up to e, emitting a reset for every epoch
// the other side has already left behind.
func (j *JoinSide) advance(e int64) error {
	s := j.state
	mine, other := &s.epochs[j.side], &s.epochs[1-j.side]
	for e > *mine {
		if *other > *mine {
			if err := s.next.Reset(Tuple{s.epochKey: Int(*mine)}); err != nil {
				return err
			}
		}
		*mine++
	}
	return nil
}

// Next matches tup against the tuples the other side stored for the same key
// and window, or stores it until one arrives.
func (j *JoinSide) Next(tup Tuple) error {
	s := j.state
	key, val, err := s.extract[j.side](tup)
	if err != nil {
		return errors.Wrapf(err, "join %s", j.side)
	}
	e, err := tup.LookupInt(s.epochKey)
	if err != nil {
		return errors.Wrapf(err, "join %s", j.side)
	}

	if err := j.advance(e); err != nil {
		return err
	}

	lookup := key.With(s.epochKey, Int(e))
	id := lookup.Key()

	other := s.tables[1-j.side]
	if match, ok := other[id]; ok {
		delete(other, id)
		return s.next.Next(Union(lookup, Union(val, match.val)))
	}
	s.tables[j.side][id] = pending{lookup: lookup, val: val}
	return nil
}

// Reset lets the barrier progress for a side that saw no tuples in a window.
func (j *JoinSide) Reset(ctx Tuple) error {
	e, err := ctx.LookupInt(j.state.epochKey)
	if err != nil {
		return errors.Wrapf(err, "join %s reset", j.side)
	}
	return j.advance(e)
}

// Epoch returns the window this side has fully processed up to.
func (j *JoinSide) Epoch() int64 {
	return j.state.epochs[j.side]
}

// Pending returns the number of stored tuples of this side still waiting for
// a match. Entries are only removed by a match.
func (j *JoinSide) Pending() int {
	return len(j.state.tables[j.side])
}
