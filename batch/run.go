package batch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// New prepares a run over emails, every address starts as pending
func New(v Validator, emails []types.GeneratedEmail, options ...Option) *Run {
	logger := logrus.New()
	logger.Out = io.Discard

	r := &Run{
		id:        uuid.NewString(),
		validator: v,
		batchSize: DefaultBatchSize,
		delay:     DefaultDelay,
		logger:    logger,
		sleep:     sleepCtx,
		clock:     time.Now,
		state:     StateIdle,
		tasks:     make([]Task, len(emails)),
	}

	for i, e := range emails {
		r.tasks[i] = Task{Email: e, Status: TaskPending}
	}

	for _, opt := range options {
		opt(r)
	}

	r.logger = r.logger.WithFields(logrus.Fields{
		"svc":    "batch",
		"run_id": r.id,
	})

	return r
}

// Run validates generated addresses in chunks. Pausing takes effect before the next chunk is scheduled, a chunk
// that's in flight always finishes.
type Run struct {
	id        string
	validator Validator
	batchSize int
	delay     time.Duration
	progress  func(s Status)
	logger    logrus.FieldLogger
	sleep     func(ctx context.Context, d time.Duration) error
	clock     func() time.Time

	lock    sync.Mutex
	state   State
	started bool
	paused  bool
	resume  chan struct{}
	next    int
	tasks   []Task
	valid   []provider.Result
}

func (r *Run) ID() string {
	return r.id
}

// Start processes all tasks and blocks until they're done or ctx ends. A paused run blocks until Resume is called.
func (r *Run) Start(ctx context.Context) error {
	r.lock.Lock()
	if r.started {
		r.lock.Unlock()
		return ErrAlreadyStarted
	}

	r.started = true
	if !r.paused {
		r.state = StateValidating
	}
	r.lock.Unlock()

	r.logger.WithFields(logrus.Fields{
		"total":      len(r.tasks),
		"batch_size": r.batchSize,
		"delay":      r.delay.String(),
	}).Info("Starting validation run")

	for {
		if err := r.waitWhilePaused(ctx); err != nil {
			return r.stop(err)
		}

		start, end, ok := r.nextChunk()
		if !ok {
			break
		}

		r.validateChunk(ctx, start, end)
		r.notify()

		if end >= len(r.tasks) {
			break
		}

		if r.isPaused() {
			continue
		}

		if err := r.sleep(ctx, r.delay); err != nil {
			return r.stop(err)
		}
	}

	r.lock.Lock()
	r.state = StateCompleted
	r.paused = false
	r.lock.Unlock()

	status := r.Status()
	r.logger.WithFields(logrus.Fields{
		"total": status.Total,
		"valid": len(status.Valid),
	}).Info("Validation run completed")

	r.notify()

	return nil
}

// Pause prevents the next chunk from being scheduled. Once the last chunk is scheduled there's nothing left to pause.
func (r *Run) Pause() {
	r.lock.Lock()
	if r.paused || r.state == StateCompleted || r.state == StateStopped || r.next >= len(r.tasks) {
		r.lock.Unlock()
		return
	}

	r.paused = true
	r.resume = make(chan struct{})
	r.lock.Unlock()

	r.logger.Info("Pausing after the current chunk")
}

// Resume continues a paused run
func (r *Run) Resume() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.paused {
		return
	}

	r.paused = false
	if r.started {
		r.state = StateValidating
	}

	close(r.resume)
}

// Status returns a snapshot of the progress
func (r *Run) Status() Status {
	r.lock.Lock()
	defer r.lock.Unlock()

	s := Status{
		RunID: r.id,
		State: r.state,
		Total: len(r.tasks),
		Valid: make([]provider.Result, len(r.valid)),
	}

	copy(s.Valid, r.valid)

	for _, t := range r.tasks {
		switch t.Status {
		case TaskPending:
			s.Pending++
		case TaskProcessing:
			s.Processing++
		case TaskCompleted:
			s.Completed++
			s.Processed++
		case TaskFailed:
			s.Failed++
			s.Processed++
		}
	}

	return s
}

// Tasks returns a copy of every task
func (r *Run) Tasks() []Task {
	r.lock.Lock()
	defer r.lock.Unlock()

	result := make([]Task, len(r.tasks))
	copy(result, r.tasks)

	return result
}

// Results returns the results of processed tasks, in input order
func (r *Run) Results() []provider.Result {
	r.lock.Lock()
	defer r.lock.Unlock()

	result := make([]provider.Result, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.Result != nil {
			result = append(result, *t.Result)
		}
	}

	return result
}

func (r *Run) isPaused() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.paused
}

func (r *Run) waitWhilePaused(ctx context.Context) error {
	r.lock.Lock()
	if !r.paused {
		r.lock.Unlock()
		return ctx.Err()
	}

	r.state = StatePaused
	ch := r.resume
	r.lock.Unlock()

	r.logger.Info("Validation run paused")
	r.notify()

	select {
	case <-ch:
		r.logger.Info("Validation run resumed")
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Run) nextChunk() (int, int, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	start := r.next
	if start >= len(r.tasks) {
		return 0, 0, false
	}

	end := start + r.batchSize
	if end > len(r.tasks) {
		end = len(r.tasks)
	}

	r.next = end

	return start, end, true
}

func (r *Run) validateChunk(ctx context.Context, start, end int) {
	g := errgroup.Group{}
	g.SetLimit(end - start)

	for i := start; i < end; i++ {
		i := i

		r.lock.Lock()
		r.tasks[i].Status = TaskProcessing
		r.tasks[i].Start = r.clock()
		email := r.tasks[i].Email.Email
		r.lock.Unlock()

		g.Go(func() error {
			result, ok := r.validate(ctx, email)

			r.lock.Lock()
			defer r.lock.Unlock()

			t := &r.tasks[i]
			t.End = r.clock()
			t.Duration = t.End.Sub(t.Start)
			t.Result = &result
			t.Status = TaskCompleted
			if !ok {
				t.Status = TaskFailed
			}

			return nil
		})
	}

	_ = g.Wait()

	r.lock.Lock()
	for i := start; i < end; i++ {
		if res := r.tasks[i].Result; res != nil && res.IsValid {
			r.valid = append(r.valid, *res)
		}
	}
	r.lock.Unlock()
}

// validate reports false when the validator panicked
func (r *Run) validate(ctx context.Context, email string) (result provider.Result, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{
				"email": email,
				"panic": rec,
			}).Error("Validation failed")

			result = provider.Result{
				Email:     email,
				IsValid:   false,
				Error:     fmt.Sprintf("%s: %v", provider.ErrPanic, rec),
				Provider:  r.validator.Provider(),
				Timestamp: r.clock().UTC(),
			}
			ok = false
		}
	}()

	return r.validator.ValidateEmail(ctx, email), true
}

func (r *Run) stop(err error) error {
	r.lock.Lock()
	r.state = StateStopped
	r.lock.Unlock()

	r.logger.WithError(err).Warn("Validation run stopped")
	r.notify()

	return err
}

func (r *Run) notify() {
	if r.progress == nil {
		return
	}

	r.progress(r.Status())
}
