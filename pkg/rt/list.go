package rt

import "github.com/pkg/errors"

// NewList allocates a zero-filled list of n elements.
func (a *Arena) NewList(n int64) (ListRef, error) {
	if n < 0 {
		return 0, errors.Errorf("negative list length %d", n)
	}
	a.lists = append(a.lists, make([]float64, n))
	return ListRef(len(a.lists) - 1), nil
}

func (a *Arena) list(l ListRef) ([]float64, error) {
	if l == 0 {
		return nil, ErrNullRef
	}
	if l < 0 || int(l) >= len(a.lists) {
		return nil, errors.Wrapf(ErrBadRef, "list %d", l)
	}
	return a.lists[l], nil
}

// ListGet returns element i of l.
func (a *Arena) ListGet(l ListRef, i int64) (float64, error) {
	xs, err := a.list(l)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= int64(len(xs)) {
		return 0, &IndexError{Index: i, Len: int64(len(xs))}
	}
	return xs[i], nil
}

// ListSet stores v as element i of l.
func (a *Arena) ListSet(l ListRef, i int64, v float64) error {
	xs, err := a.list(l)
	if err != nil {
		return err
	}
	if i < 0 || i >= int64(len(xs)) {
		return &IndexError{Index: i, Len: int64(len(xs))}
	}
	xs[i] = v
	return nil
}

// ListLength returns the number of elements in l.
func (a *Arena) ListLength(l ListRef) (int64, error) {
	xs, err := a.list(l)
	if err != nil {
		return 0, err
	}
	return int64(len(xs)), nil
}

// ListValues returns a copy of the elements of l.
func (a *Arena) ListValues(l ListRef) ([]float64, error) {
	xs, err := a.list(l)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), xs...), nil
}
