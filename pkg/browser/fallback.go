package browser

import "errors"

// candidate is one alternative in a fallback chain.
type candidate[T any] struct {
	name string
	try  func() (T, error)
}

// firstOK tries candidates in order and stops at the first success, returning its value and index.
// Failures are reported to onFail as they happen. When every candidate fails, idx is -1 and errs
// holds one failure per candidate in order.
func firstOK[T any](cands []candidate[T], onFail func(name string, err error)) (res T, idx int, errs []error) {
	for i, c := range cands {
		v, err := c.try()
		if err == nil {
			return v, i, nil
		}
		if onFail != nil {
			onFail(c.name, err)
		}
		errs = append(errs, err)
	}
	var zero T
	return zero, -1, errs
}

// lastErr returns the final error of a failed chain.
func lastErr(errs []error) error {
	if len(errs) == 0 {
		return errors.New("no candidates")
	}
	return errs[len(errs)-1]
}
