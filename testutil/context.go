package testutil

import (
	"context"
	"sync"
	"time"
)

func NewContext(parent context.Context) *Context {
	return &Context{
		parent: parent,
	}
}

// Context wraps a parent context and lets a test decide when Err() reports an error
type Context struct {
	parent    context.Context
	errEvalFn ErrEvalFn
}

type ErrEvalFn func(parent context.Context) error

// CanceledAfter returns an ErrEvalFn that reports context.Canceled once it has been evaluated more than n times
func CanceledAfter(n int) ErrEvalFn {
	var lock sync.Mutex
	var calls int

	return func(parent context.Context) error {
		lock.Lock()
		defer lock.Unlock()

		calls++
		if calls > n {
			return context.Canceled
		}

		return parent.Err()
	}
}

func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.parent.Deadline()
}

func (c *Context) Done() <-chan struct{} {
	return c.parent.Done()
}

func (c *Context) SetParent(ctx context.Context) *Context {
	c.parent = ctx
	return c
}

// SetErrEval allows you to define a callback that can be use to influence when Err() returns an error
func (c *Context) SetErrEval(fn ErrEvalFn) *Context {
	c.errEvalFn = fn
	return c
}

func (c *Context) Err() error {
	if c.errEvalFn == nil {
		return c.parent.Err()
	}

	return c.errEvalFn(c.parent)
}

func (c *Context) Value(key interface{}) interface{} {
	return c.parent.Value(key)
}
