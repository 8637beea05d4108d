package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
)

// StorageKey is the name under which the settings are persisted
const StorageKey = "emailValidationSettings"

const (
	DefaultBatchSize = 5
	DefaultTimeout   = Milliseconds(30000)
)

// Milliseconds is a duration, serialised as a plain number of milliseconds
type Milliseconds int64

func (ms Milliseconds) Duration() time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (ms Milliseconds) String() string {
	return ms.Duration().String()
}

// Settings selects the provider used for validation and controls the bulk behaviour. A Timeout of 0 disables the
// per-call deadline.
type Settings struct {
	Provider  provider.ID  `json:"provider"`
	BatchSize int          `json:"batchSize"`
	Timeout   Milliseconds `json:"timeout"`
}

// Defaults returns the settings used when nothing has been persisted
func Defaults() Settings {
	return Settings{
		Provider:  provider.DefaultID,
		BatchSize: DefaultBatchSize,
		Timeout:   DefaultTimeout,
	}
}

// UnmarshalJSON decodes leniently, an unknown provider is kept as-is so that Normalize can decide what to do with it.
// A missing timeout means the default, only an explicit 0 disables the deadline.
func (s *Settings) UnmarshalJSON(b []byte) error {
	var raw struct {
		Provider  string        `json:"provider"`
		BatchSize int           `json:"batchSize"`
		Timeout   *Milliseconds `json:"timeout"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	timeout := DefaultTimeout
	if raw.Timeout != nil {
		timeout = *raw.Timeout
	}

	*s = Settings{
		Provider:  provider.ID(raw.Provider),
		BatchSize: raw.BatchSize,
		Timeout:   timeout,
	}

	return nil
}

// Validate is used before saving. An unknown provider is rejected, registry may be nil in which case only the
// built-in providers are accepted.
func (s Settings) Validate(registry *provider.Registry) error {
	if s.BatchSize < 1 {
		return fmt.Errorf("%w, batch size must be at least 1, got %d", ErrInvalidSettings, s.BatchSize)
	}

	if s.Timeout < 0 {
		return fmt.Errorf("%w, timeout can't be negative, got %d", ErrInvalidSettings, s.Timeout)
	}

	if registry == nil {
		var id provider.ID
		if err := id.Set(string(s.Provider)); err != nil {
			return fmt.Errorf("%w, %s", ErrInvalidSettings, err)
		}

		return nil
	}

	if _, err := registry.Lookup(s.Provider); err != nil {
		return fmt.Errorf("%w, %s", ErrInvalidSettings, err)
	}

	return nil
}

// Normalize replaces every out-of-range value by its default. It's used on load, persisted values written by older
// versions or by hand are never rejected.
func (s Settings) Normalize(registry *provider.Registry) Settings {
	def := Defaults()

	if s.BatchSize < 1 {
		s.BatchSize = def.BatchSize
	}

	if s.Timeout < 0 {
		s.Timeout = def.Timeout
	}

	known := s.Provider.IsKnown()
	if registry != nil {
		known = registry.Has(s.Provider)
	}

	if !known {
		s.Provider = def.Provider
	}

	return s
}
