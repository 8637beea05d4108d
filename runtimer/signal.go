package runtimer

import (
	"os"
	"os/signal"
	"sync"
)

// Callback receives the signal and its 1-indexed position among the received signals
type Callback func(s os.Signal, n int)

// New handles up to limit signals before it stops listening. With a limit of 2 the first signal can be used to
// wind down gracefully and the second one to abort.
func New(limit int, signals ...os.Signal) *SignalHandler {
	if limit < 1 {
		limit = 1
	}

	c := make(chan os.Signal, limit)
	signal.Notify(c, signals...)

	sh := &SignalHandler{
		c:     c,
		limit: limit,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go sh.handle()

	return sh
}

type SignalHandler struct {
	c     chan os.Signal
	limit int

	lock sync.Mutex
	fns  []Callback

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func (sh *SignalHandler) handle() {
	defer close(sh.done)
	defer signal.Stop(sh.c)

	for n := 1; n <= sh.limit; n++ {
		select {
		case s := <-sh.c:
			sh.lock.Lock()
			fns := make([]Callback, len(sh.fns))
			copy(fns, sh.fns)
			sh.lock.Unlock()

			for _, fn := range fns {
				fn(s, n)
			}

		case <-sh.stop:
			return
		}
	}
}

func (sh *SignalHandler) RegisterCallback(fn Callback) {
	sh.lock.Lock()
	sh.fns = append(sh.fns, fn)
	sh.lock.Unlock()
}

// Stop stops listening for signals, callbacks that are running are allowed to finish
func (sh *SignalHandler) Stop() {
	sh.stopOnce.Do(func() {
		close(sh.stop)
	})

	<-sh.done
}

// Wait blocks until the limit is reached and all callbacks have been called, or until Stop is called
func (sh *SignalHandler) Wait() {
	<-sh.done
}
