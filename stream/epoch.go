package stream

import (
	"math"

	"github.com/go-faster/errors"
)

// TimeKey is the field the epoch operator reads timestamps from.
const TimeKey = "time"

// EpochOperator stamps every tuple with the id of the time window it falls
// in. Windows are driven by the time field of the data: the first tuple seen
// defines the right edge of window 0, and every later tuple that reaches or
// passes the current edge closes one window per crossed width.
type EpochOperator struct {
	width  float64
	keyOut string
	next   Operator

	// boundary is the right edge of the current window, 0 until the first
	// tuple arrives.
	boundary float64
	eid      int64
}

// NewEpoch creates an EpochOperator with windows of the given width that
// writes the window id under keyOut. It panics if width is not positive.
func NewEpoch(width float64, keyOut string, next Operator) *EpochOperator {
	if !(width > 0) {
		panic("stream: epoch width must be positive")
	}
	return &EpochOperator{
		width:  width,
		keyOut: keyOut,
		next:   next,
	}
}

// Next assigns tup to a window, closing any windows it has moved past first.
func (o *EpochOperator) Next(tup Tuple) error {
	t, err := tup.LookupFloat(TimeKey)
	if err != nil {
		return errors.Wrap(err, "epoch")
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return errors.Wrapf(ErrDomain, "epoch: time %v", t)
	}

	if o.boundary == 0 {
		o.boundary = t + o.width
	} else {
		for t >= o.boundary {
			next := o.boundary + o.width
			if next == o.boundary {
				return errors.Wrapf(ErrDomain, "epoch: width %v lost at window edge %v", o.width, o.boundary)
			}
			if err := o.next.Reset(Tuple{o.keyOut: Int(o.eid)}); err != nil {
				return err
			}
			o.boundary = next
			o.eid++
		}
	}

	return o.next.Next(tup.With(o.keyOut, Int(o.eid)))
}

// Reset closes the current window and starts over: the next tuple seen
// defines a fresh window 0.
func (o *EpochOperator) Reset(_ Tuple) error {
	err := o.next.Reset(Tuple{o.keyOut: Int(o.eid)})
	o.boundary = 0
	o.eid = 0
	return err
}

// Epoch returns the id of the current window.
func (o *EpochOperator) Epoch() int64 {
	return o.eid
}
