package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/werkit"
	"github.com/sirupsen/logrus"
)

// CheckFn validates a single address. Implementations are expected not to panic, a panic escaping a chunk makes the
// chunk run again, sequentially.
type CheckFn func(ctx context.Context, email string) provider.Result

// Middleware decorates a CheckFn, e.g. to publish or record results
type Middleware func(fn CheckFn) CheckFn

// New creates the facade. The persisted settings are loaded once, defaults are used when nothing was persisted or
// loading fails. store may be nil, in which case settings only live in memory.
func New(ctx context.Context, registry *provider.Registry, store settings.Store, options ...Option) *Service {
	svc := &Service{
		registry:   registry,
		store:      store,
		logger:     discardLogger(),
		batchDelay: DefaultBatchDelay,
		sleep:      sleepCtx,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		current: settings.Defaults(),
	}

	for _, opt := range options {
		opt(svc)
	}

	svc.logger = svc.logger.WithField("svc", "validation")
	svc.current = svc.load(ctx)

	var fn CheckFn = svc.dispatch
	for i := len(svc.middleware) - 1; i >= 0; i-- {
		fn = svc.middleware[i](fn)
	}

	svc.chain = fn

	return svc
}

// Service dispatches validations to the configured provider. Settings are read at the start of every dispatch, a
// change made during a bulk run applies to the calls that follow it.
type Service struct {
	registry   *provider.Registry
	store      settings.Store
	logger     logrus.FieldLogger
	batchDelay time.Duration
	middleware []Middleware
	sleep      func(ctx context.Context, d time.Duration) error
	clock      func() time.Time
	chain      CheckFn

	lock    sync.RWMutex
	current settings.Settings
}

func (svc *Service) load(ctx context.Context) settings.Settings {
	if svc.store == nil {
		return settings.Defaults()
	}

	s, err := svc.store.Load(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		svc.logger.Debug("No persisted settings, using defaults")
		return settings.Defaults()
	}

	if err != nil {
		svc.logger.WithError(err).Warn("Unable to load persisted settings, using defaults")
		return settings.Defaults()
	}

	normalized := s.Normalize(svc.registry)
	if normalized != s {
		svc.logger.WithFields(logrus.Fields{
			"persisted":  s,
			"normalized": normalized,
		}).Warn("Persisted settings contained out of range values")
	}

	return normalized
}

// Registry returns the providers the service dispatches to
func (svc *Service) Registry() *provider.Registry {
	return svc.registry
}

// Settings returns a copy of the current settings
func (svc *Service) Settings() settings.Settings {
	svc.lock.RLock()
	defer svc.lock.RUnlock()

	return svc.current
}

// Provider returns the currently configured provider ID
func (svc *Service) Provider() provider.ID {
	return svc.Settings().Provider
}

// SaveSettings validates s, persists it and makes it current. Nothing changes when validation or persisting fails.
func (svc *Service) SaveSettings(ctx context.Context, s settings.Settings) error {
	if err := s.Validate(svc.registry); err != nil {
		return err
	}

	if svc.store != nil {
		if err := svc.store.Save(ctx, s); err != nil {
			return fmt.Errorf("unable to persist settings %w", err)
		}
	}

	svc.lock.Lock()
	svc.current = s
	svc.lock.Unlock()

	svc.logger.WithField("settings", s).Info("Settings saved")

	return nil
}

// MaxBulkDuration is the longest a bulk run of n addresses can take with the current settings. It's unbounded, and
// false is returned, when the per-call timeout is disabled.
func (svc *Service) MaxBulkDuration(n int) (time.Duration, bool) {
	s := svc.Settings()
	if s.Timeout <= 0 {
		return 0, false
	}

	if n < 1 {
		return 0, true
	}

	size := s.BatchSize
	if size < 1 {
		size = settings.DefaultBatchSize
	}

	chunks := time.Duration((n + size - 1) / size)

	return chunks*s.Timeout.Duration() + (chunks-1)*svc.batchDelay, true
}

// ValidateEmail validates a single address with the currently configured provider
func (svc *Service) ValidateEmail(ctx context.Context, email string) provider.Result {
	return svc.chain(ctx, email)
}

// ValidateBulkEmails validates emails in contiguous chunks of BatchSize. The calls within a chunk run concurrently,
// chunks run one after the other with the batch delay in between. The result has the same length and order as
// emails, addresses that weren't processed because ctx ended carry the context error.
func (svc *Service) ValidateBulkEmails(ctx context.Context, emails []string) []provider.Result {
	results := make([]provider.Result, len(emails))
	if len(emails) == 0 {
		return results
	}

	size := svc.Settings().BatchSize
	if size < 1 {
		size = settings.DefaultBatchSize
	}

	log := svc.logger.WithFields(logrus.Fields{
		"emails":     len(emails),
		"batch_size": size,
	})

	log.Debug("Starting bulk validation")

	for start := 0; start < len(emails); start += size {
		if err := ctx.Err(); err != nil {
			svc.fillWithError(results[start:], emails[start:], err)
			log.WithError(err).Warn("Bulk validation interrupted")
			break
		}

		end := start + size
		if end > len(emails) {
			end = len(emails)
		}

		svc.validateChunk(ctx, emails[start:end], results[start:end])

		if end == len(emails) {
			break
		}

		if err := svc.sleep(ctx, svc.batchDelay); err != nil {
			svc.fillWithError(results[end:], emails[end:], err)
			log.WithError(err).Warn("Bulk validation interrupted")
			break
		}
	}

	return results
}

func (svc *Service) validateChunk(ctx context.Context, emails []string, out []provider.Result) {
	wi := &werkit.WerkIt{}
	wi.StartWorkers(len(emails), func(task werkit.Task) {
		out[task.Index] = svc.chain(task.Ctx, task.Email)
	})

	for i, email := range emails {
		wi.Process(werkit.Task{
			Ctx:   ctx,
			Index: i,
			Email: email,
		})
	}

	err := wi.Wait()
	if err == nil {
		return
	}

	svc.logger.WithError(err).Warn("Concurrent validation of chunk failed, retrying one by one")

	for i, email := range emails {
		out[i] = svc.validateIsolated(ctx, email)
	}
}

func (svc *Service) validateIsolated(ctx context.Context, email string) (result provider.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = svc.failure(email, fmt.Errorf("%w: %v", provider.ErrPanic, r))
		}
	}()

	return svc.chain(ctx, email)
}

func (svc *Service) fillWithError(out []provider.Result, emails []string, err error) {
	for i, email := range emails {
		out[i] = svc.failure(email, err)
	}
}

func (svc *Service) failure(email string, err error) provider.Result {
	return provider.Result{
		Email:     email,
		IsValid:   false,
		Error:     err.Error(),
		Provider:  svc.Provider(),
		Timestamp: svc.clock(),
	}
}

// dispatch resolves the provider from the current settings and applies the timeout
func (svc *Service) dispatch(ctx context.Context, email string) provider.Result {
	s := svc.Settings()

	p, err := svc.resolve(s.Provider)
	if err != nil {
		return svc.failure(email, err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout.Duration())
		defer cancel()
	}

	return p.Validate(ctx, email)
}

// resolve falls back to the default provider, and then to the first registered one
func (svc *Service) resolve(id provider.ID) (provider.Provider, error) {
	if svc.registry == nil {
		return nil, ErrNoProvider
	}

	if p, ok := svc.registry.Get(id); ok {
		return p, nil
	}

	svc.logger.WithField("provider", id).Debug("Unknown provider, falling back")

	if p, ok := svc.registry.Get(provider.DefaultID); ok {
		return p, nil
	}

	if all := svc.registry.Providers(); len(all) > 0 {
		return all[0], nil
	}

	return nil, ErrNoProvider
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard

	return logger
}
