package iterator

// NewCallbackIterator provides an iterator interface based on closure callbacks
func NewCallbackIterator(next func() bool, value func() (string, error), close func() error) *CallbackIterator {
	return &CallbackIterator{
		next:  next,
		value: value,
		close: close,
	}
}

type CallbackIterator struct {
	next  func() bool
	value func() (string, error)
	close func() error
}

// Next returns true if we have more iterations pending
func (i *CallbackIterator) Next() bool {
	return i.next()
}

// Value returns the current value, and/or an error
func (i *CallbackIterator) Value() (string, error) {
	return i.value()
}

// Close performs any cleanups. It may be used to return the last error
func (i *CallbackIterator) Close() error {
	return i.close()
}

// ErrFn receives the errors of individual values, iteration continues afterwards
type ErrFn func(err error)

// Collect drains the iterator, empty values are skipped. The error returned is the one of Close.
func Collect(it *CallbackIterator, onErr ErrFn) ([]string, error) {
	var values []string
	for it.Next() {
		v, err := it.Value()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}

			continue
		}

		if v == "" {
			continue
		}

		values = append(values, v)
	}

	return values, it.Close()
}
