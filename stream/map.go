package stream

import "github.com/go-faster/errors"

// MapFunction rewrites a tuple.
type MapFunction func(tup Tuple) (Tuple, error)

// MapOperator is an operator that applies a function to each tuple in the stream.
type MapOperator struct {
	mapFn MapFunction
	next  Operator
}

// NewMap creates a new MapOperator emitting mapFn(tup) to next.
func NewMap(mapFn MapFunction, next Operator) *MapOperator {
	return &MapOperator{
		mapFn: mapFn,
		next:  next,
	}
}

// Next applies the map function and forwards the result.
func (o *MapOperator) Next(tup Tuple) error {
	out, err := o.mapFn(tup)
	if err != nil {
		return errors.Wrap(err, "map")
	}
	return o.next.Next(out)
}

// Reset forwards ctx unchanged.
func (o *MapOperator) Reset(ctx Tuple) error {
	return o.next.Reset(ctx)
}

// Predicate decides whether a tuple passes a filter.
type Predicate func(tup Tuple) (bool, error)

// FilterOperator forwards the tuples accepted by its predicate.
type FilterOperator struct {
	pred Predicate
	next Operator
}

// NewFilter creates a new FilterOperator.
func NewFilter(pred Predicate, next Operator) *FilterOperator {
	return &FilterOperator{
		pred: pred,
		next: next,
	}
}

// Next forwards tup iff the predicate holds.
func (o *FilterOperator) Next(tup Tuple) error {
	ok, err := o.pred(tup)
	if err != nil {
		return errors.Wrap(err, "filter")
	}
	if !ok {
		return nil
	}
	return o.next.Next(tup)
}

// Reset forwards ctx unchanged.
func (o *FilterOperator) Reset(ctx Tuple) error {
	return o.next.Reset(ctx)
}
