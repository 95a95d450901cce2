package stream

// SplitOperator broadcasts every tuple and reset to two downstream operators,
// left first.
type SplitOperator struct {
	left  Operator
	right Operator
}

// NewSplit creates a SplitOperator.
func NewSplit(left, right Operator) *SplitOperator {
	return &SplitOperator{left: left, right: right}
}

// Next forwards tup to left, then to right.
func (o *SplitOperator) Next(tup Tuple) error {
	if err := o.left.Next(tup); err != nil {
		return err
	}
	return o.right.Next(tup)
}

// Reset forwards ctx to left, then to right.
func (o *SplitOperator) Reset(ctx Tuple) error {
	if err := o.left.Reset(ctx); err != nil {
		return err
	}
	return o.right.Reset(ctx)
}
