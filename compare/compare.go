package compare

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultDelay is the pause between two addresses of a bulk comparison
const DefaultDelay = 100 * time.Millisecond

// Outcome is the result of one provider for one address
type Outcome struct {
	Provider provider.ID     `json:"provider"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Result   provider.Result `json:"result"`
	Duration time.Duration   `json:"duration"`
}

// Success is true when the call itself didn't fail
func (o Outcome) Success() bool {
	return !o.Result.HasError()
}

type Option func(c *Comparer)

// WithLimit caps the number of providers called at the same time
func WithLimit(n int) Option {
	return func(c *Comparer) {
		c.limit = n
	}
}

// WithTimeout sets a deadline for every individual provider call
func WithTimeout(d time.Duration) Option {
	return func(c *Comparer) {
		c.timeout = d
	}
}

func WithDelay(d time.Duration) Option {
	return func(c *Comparer) {
		if d >= 0 {
			c.delay = d
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Comparer) {
		c.logger = logger
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Comparer) {
		c.sleep = fn
	}
}

// New returns a Comparer on the providers of registry. It calls providers directly, the validation settings are
// neither read nor changed.
func New(registry *provider.Registry, options ...Option) *Comparer {
	logger := logrus.New()
	logger.Out = io.Discard

	c := &Comparer{
		registry: registry,
		delay:    DefaultDelay,
		logger:   logger,
		sleep:    sleepCtx,
		now:      time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	c.logger = c.logger.WithField("svc", "compare")

	return c
}

type Comparer struct {
	registry *provider.Registry
	limit    int
	timeout  time.Duration
	delay    time.Duration
	logger   logrus.FieldLogger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// Providers resolves ids, an empty list selects every registered provider
func (c *Comparer) Providers(ids []provider.ID) ([]provider.Provider, error) {
	if len(ids) == 0 {
		return c.registry.Providers(), nil
	}

	result := make([]provider.Provider, 0, len(ids))
	for _, id := range ids {
		p, err := c.registry.Lookup(id)
		if err != nil {
			return nil, err
		}

		result = append(result, p)
	}

	return result, nil
}

// MaxDuration is the longest a bulk comparison of emails addresses on providers providers can take. It's unbounded,
// and false is returned, without a per-call timeout.
func (c *Comparer) MaxDuration(emails, providers int) (time.Duration, bool) {
	if c.timeout <= 0 {
		return 0, false
	}

	if emails < 1 || providers < 1 {
		return 0, true
	}

	rounds := 1
	if c.limit > 0 {
		rounds = (providers + c.limit - 1) / c.limit
	}

	perEmail := time.Duration(rounds) * c.timeout

	return time.Duration(emails)*perEmail + time.Duration(emails-1)*c.delay, true
}

// Single runs email through every selected provider concurrently. Outcomes are in the order of ids.
func (c *Comparer) Single(ctx context.Context, email string, ids []provider.ID) ([]Outcome, error) {
	providers, err := c.Providers(ids)
	if err != nil {
		return nil, err
	}

	return c.single(ctx, email, providers), nil
}

func (c *Comparer) single(ctx context.Context, email string, providers []provider.Provider) []Outcome {
	outcomes := make([]Outcome, len(providers))

	g := errgroup.Group{}
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			ctx := ctx
			if c.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}

			start := c.now()
			result := p.Validate(ctx, email)

			outcomes[i] = Outcome{
				Provider: p.ID(),
				Name:     p.Name(),
				Email:    email,
				Result:   result,
				Duration: c.now().Sub(start),
			}

			return nil
		})
	}

	_ = g.Wait()

	c.logger.WithFields(logrus.Fields{
		"email":     email,
		"providers": len(providers),
	}).Debug("Compared providers")

	return outcomes
}

// Bulk compares the addresses one after the other, with the delay in between. Blank addresses are skipped.
func (c *Comparer) Bulk(ctx context.Context, emails []string, ids []provider.ID) ([]Outcome, error) {
	providers, err := c.Providers(ids)
	if err != nil {
		return nil, err
	}

	var todo []string
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			todo = append(todo, e)
		}
	}

	var outcomes []Outcome
	for i, email := range todo {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcomes = append(outcomes, c.single(ctx, email, providers)...)

		if i < len(todo)-1 {
			if err := c.sleep(ctx, c.delay); err != nil {
				return outcomes, err
			}
		}
	}

	return outcomes, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
