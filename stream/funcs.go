package stream

import "github.com/go-faster/errors"

// SingleGroup puts every tuple in one global group.
func SingleGroup(Tuple) Tuple {
	return Tuple{}
}

// ProjectKeys groups tuples by the values of the listed fields.
func ProjectKeys(keys ...string) GroupingFunc {
	return func(tup Tuple) Tuple {
		return tup.Project(keys...)
	}
}

// RenameKeys is ProjectKeys with relabelling, see Rename.
func RenameKeys(pairs ...RenamePair) GroupingFunc {
	return func(tup Tuple) Tuple {
		return Rename(pairs, tup)
	}
}

// Counter counts the tuples of a group.
func Counter(acc OpResult, _ Tuple) (OpResult, error) {
	switch v := acc.(type) {
	case Empty:
		return Int(1), nil
	case Int:
		return v + 1, nil
	default:
		return acc, errors.Wrapf(ErrDomain, "counter: accumulator is %s", acc.Kind())
	}
}

// SumInts sums the integer field of the tuples of a group. The first tuple
// of a group only seeds the accumulator with 0, its field is not read.
func SumInts(field string) ReductionFunc {
	return func(acc OpResult, tup Tuple) (OpResult, error) {
		switch v := acc.(type) {
		case Empty:
			return Int(0), nil
		case Int:
			n, err := tup.LookupInt(field)
			if err != nil {
				return acc, errors.Wrapf(ErrDomain, "sum %q: %v", field, err)
			}
			return v + Int(n), nil
		default:
			return acc, errors.Wrapf(ErrDomain, "sum %q: accumulator is %s", field, acc.Kind())
		}
	}
}

// KeyGeqInt accepts tuples whose integer field key is at least threshold.
func KeyGeqInt(key string, threshold int64) Predicate {
	return func(tup Tuple) (bool, error) {
		n, err := tup.LookupInt(key)
		if err != nil {
			return false, err
		}
		return n >= threshold, nil
	}
}

// KeyLeqInt accepts tuples whose integer field key is at most threshold.
func KeyLeqInt(key string, threshold int64) Predicate {
	return func(tup Tuple) (bool, error) {
		n, err := tup.LookupInt(key)
		if err != nil {
			return false, err
		}
		return n <= threshold, nil
	}
}

// Extract builds a join KeyExtractor from a key and a value grouping function.
func Extract(key, val GroupingFunc) KeyExtractor {
	return func(tup Tuple) (Tuple, Tuple, error) {
		return key(tup), val(tup), nil
	}
}
