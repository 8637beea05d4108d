package provider

import (
	"fmt"
	"time"
)

// ID identifies an upstream verification API
type ID string

const (
	MSLM          ID = "mslm"
	EmailChecker  ID = "email-checker"
	Automizely    ID = "automizely"
	Mail7         ID = "mail7"
	ValidateEmail ID = "validate-email"
	Bazzigate     ID = "bazzigate"
	SuperSend     ID = "supersend"
	Site24x7      ID = "site24x7"
)

// DefaultID is used whenever no, or an unknown, provider is configured
const DefaultID = MSLM

var knownIDs = []ID{
	MSLM,
	EmailChecker,
	Automizely,
	Mail7,
	ValidateEmail,
	Bazzigate,
	SuperSend,
	Site24x7,
}

// KnownIDs returns the identifiers of the built-in adapters, in their canonical order
func KnownIDs() []ID {
	result := make([]ID, len(knownIDs))
	copy(result, knownIDs)
	return result
}

// IsKnown returns true for the identifiers of the built-in adapters
func (id ID) IsKnown() bool {
	for _, k := range knownIDs {
		if k == id {
			return true
		}
	}

	return false
}

func (id ID) String() string {
	return string(id)
}

// Set is the flag.Value interface
func (id *ID) Set(v string) error {
	return id.UnmarshalText([]byte(v))
}

// Type is the pflag.Value interface
func (id *ID) Type() string {
	return "provider"
}

func (id *ID) UnmarshalText(b []byte) error {
	v := ID(b)
	if v.IsKnown() {
		*id = v
		return nil
	}

	if alt, ok := suggestID(string(b), knownIDs); ok {
		return fmt.Errorf("%w %q, did you mean %q", ErrUnknownProvider, v, alt)
	}

	return fmt.Errorf("%w %q", ErrUnknownProvider, v)
}

// Result is the normalised outcome of a single verification, regardless of which upstream produced it. Optional
// fields are pointers, so that "not reported" can be told apart from false/0.
type Result struct {
	Email        string    `json:"email"`
	IsValid      bool      `json:"isValid"`
	Score        *int      `json:"score,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	Status       string    `json:"status,omitempty"`
	HasMailbox   *bool     `json:"hasMailbox,omitempty"`
	IsDisposable *bool     `json:"isDisposable,omitempty"`
	IsFree       *bool     `json:"isFree,omitempty"`
	IsRole       *bool     `json:"isRole,omitempty"`
	SyntaxValid  *bool     `json:"syntaxValid,omitempty"`
	MXValid      *bool     `json:"mxValid,omitempty"`
	SMTPValid    *bool     `json:"smtpValid,omitempty"`
	Suggestion   string    `json:"suggestion,omitempty"`
	Error        string    `json:"error,omitempty"`
	Provider     ID        `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}

// HasError returns true when the call failed or the provider explained the invalidity
func (r Result) HasError() bool {
	return r.Error != ""
}

// ScoreValue returns the score, or 0 when it wasn't reported
func (r Result) ScoreValue() int {
	if r.Score == nil {
		return 0
	}

	return *r.Score
}

// Bool returns a pointer to a copy of v
func Bool(v bool) *bool {
	return &v
}

// Int returns a pointer to a copy of v
func Int(v int) *int {
	return &v
}
