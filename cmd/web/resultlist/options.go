package resultlist

import "time"

type Option func(list *ResultList)

// WithClock sets the time source used for expiry
func WithClock(fn func() time.Time) Option {
	return func(list *ResultList) {
		list.now = fn
	}
}
