package stream

// Operator is a pipeline stage. Operators are wired into a tree at
// construction time, each one holding the operator it emits to.
type Operator interface {
	// Next processes one data tuple. It may call the downstream operator's
	// Next and Reset any number of times before returning.
	Next(tup Tuple) error
	// Reset signals that the current window is complete. ctx carries
	// out-of-band fields, usually just the epoch id, that are merged into
	// any tuple emitted while flushing. A stateful operator forwards exactly
	// one Reset downstream per Reset it receives, after flushing.
	Reset(ctx Tuple) error
}

// OperatorFuncs adapts a pair of functions to the Operator interface. A nil
// function is a no-op.
type OperatorFuncs struct {
	NextFn  func(Tuple) error
	ResetFn func(Tuple) error
}

// Next calls NextFn.
func (o OperatorFuncs) Next(tup Tuple) error {
	if o.NextFn == nil {
		return nil
	}
	return o.NextFn(tup)
}

// Reset calls ResetFn.
func (o OperatorFuncs) Reset(ctx Tuple) error {
	if o.ResetFn == nil {
		return nil
	}
	return o.ResetFn(ctx)
}

// Discard is a terminal operator that drops everything it receives.
var Discard Operator = OperatorFuncs{}
