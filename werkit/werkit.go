package werkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrTaskPanicked = errors.New("task panicked")

// Task is a single address to process. Index is the position of the address in the caller's input.
type Task struct {
	Ctx   context.Context
	Index int
	Email string
}

// WerkIt runs tasks on a fixed set of workers. A panicking task doesn't take its worker down, the first panic is
// recorded and returned by Wait.
type WerkIt struct {
	wg    sync.WaitGroup
	tasks chan Task

	lock sync.Mutex
	err  error
}

func (wi *WerkIt) StartWorkers(workers int, fn func(task Task)) {
	if workers < 1 {
		workers = 1
	}

	wi.tasks = make(chan Task)
	wi.wg.Add(workers)
	for i := workers; i > 0; i-- {
		go func() {
			defer wi.wg.Done()
			for task := range wi.tasks {
				wi.run(fn, task)
			}
		}()
	}
}

func (wi *WerkIt) run(fn func(task Task), task Task) {
	defer func() {
		if r := recover(); r != nil {
			wi.lock.Lock()
			if wi.err == nil {
				wi.err = fmt.Errorf("%w at index %d: %v", ErrTaskPanicked, task.Index, r)
			}
			wi.lock.Unlock()
		}
	}()

	fn(task)
}

// Wait blocks until all processed tasks are done. It can only be called once per StartWorkers.
func (wi *WerkIt) Wait() error {
	close(wi.tasks)
	wi.wg.Wait()

	return wi.Err()
}

func (wi *WerkIt) Process(t Task) {
	wi.tasks <- t
}

// Err returns the first recorded panic, if any
func (wi *WerkIt) Err() error {
	wi.lock.Lock()
	defer wi.lock.Unlock()

	return wi.err
}
