package stream

import "github.com/go-faster/errors"

// GroupingFunc derives the grouping key of a tuple.
type GroupingFunc func(tup Tuple) Tuple

// ReductionFunc folds one tuple into the accumulator of its group. The
// accumulator of a group that has not been seen yet is Empty.
type ReductionFunc func(acc OpResult, tup Tuple) (OpResult, error)

type group struct {
	key Tuple
	acc OpResult
}

// GroupByOperator aggregates the tuples of a window per grouping key and
// emits one tuple per group when the window is reset.
type GroupByOperator struct {
	groupFn  GroupingFunc
	reduceFn ReductionFunc
	outKey   string
	next     Operator

	table map[string]*group
}

// NewGroupBy creates a GroupByOperator writing the aggregate under outKey.
func NewGroupBy(groupFn GroupingFunc, reduceFn ReductionFunc, outKey string, next Operator) *GroupByOperator {
	return &GroupByOperator{
		groupFn:  groupFn,
		reduceFn: reduceFn,
		outKey:   outKey,
		next:     next,
		table:    make(map[string]*group),
	}
}

// Next folds tup into its group.
func (o *GroupByOperator) Next(tup Tuple) error {
	key := o.groupFn(tup)
	id := key.Key()

	g, ok := o.table[id]
	if !ok {
		g = &group{key: key, acc: Empty{}}
	}
	acc, err := o.reduceFn(g.acc, tup)
	if err != nil {
		return errors.Wrapf(err, "groupby %q", o.outKey)
	}
	g.acc = acc
	o.table[id] = g
	return nil
}

// Reset emits one tuple per group, forwards the reset and clears the table.
// The aggregate under outKey overrides the grouping key, which overrides the
// reset context. Emission order across groups is unspecified.
func (o *GroupByOperator) Reset(ctx Tuple) error {
	for _, g := range o.table {
		out := Union(Tuple{o.outKey: g.acc}, Union(g.key, ctx))
		if err := o.next.Next(out); err != nil {
			return err
		}
	}
	err := o.next.Reset(ctx)
	clear(o.table)
	return err
}

// Len returns the number of groups accumulated in the current window.
func (o *GroupByOperator) Len() int {
	return len(o.table)
}

// DistinctOperator emits every distinct grouping key of a window once, when
// the window is reset.
type DistinctOperator struct {
	groupFn GroupingFunc
	next    Operator

	seen map[string]Tuple
}

// NewDistinct creates a DistinctOperator.
func NewDistinct(groupFn GroupingFunc, next Operator) *DistinctOperator {
	return &DistinctOperator{
		groupFn: groupFn,
		next:    next,
		seen:    make(map[string]Tuple),
	}
}

// Next records the key of tup.
func (o *DistinctOperator) Next(tup Tuple) error {
	key := o.groupFn(tup)
	id := key.Key()
	if _, ok := o.seen[id]; !ok {
		o.seen[id] = key
	}
	return nil
}

// Reset emits every key seen, merged over the reset context, then forwards
// the reset and clears.
func (o *DistinctOperator) Reset(ctx Tuple) error {
	for _, key := range o.seen {
		if err := o.next.Next(Union(key, ctx)); err != nil {
			return err
		}
	}
	err := o.next.Reset(ctx)
	clear(o.seen)
	return err
}

// Len returns the number of distinct keys seen in the current window.
func (o *DistinctOperator) Len() int {
	return len(o.seen)
}
