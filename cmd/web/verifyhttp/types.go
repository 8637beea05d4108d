package verifyhttp

import (
	"errors"

	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/csvimport"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/types"
)

var (
	ErrMissingBody            = errors.New("missing body")
	ErrInvalidRequest         = errors.New("request is invalid")
	ErrBodyTooLarge           = errors.New("request body too large")
	ErrUnsupportedContentType = errors.New("unsupported content-type")
)

// Response is implemented by every response body, PrepareResponse replaces nil slices so that they encode as []
type Response interface {
	PrepareResponse()
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (r *ErrorResponse) PrepareResponse() {}

type ValidateRequest struct {
	Email string `json:"email"`
}

type ValidateResponse struct {
	provider.Result
}

func (r *ValidateResponse) PrepareResponse() {}

type BulkRequest struct {
	Emails []string `json:"emails"`
}

type BulkResponse struct {
	Results []provider.Result `json:"results"`
	Valid   int               `json:"valid"`
	Error   string            `json:"error,omitempty"`
}

func (r *BulkResponse) PrepareResponse() {
	if r.Results == nil {
		r.Results = []provider.Result{}
	}
}

type GenerateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Domain    string `json:"domain"`
	Validate  bool   `json:"validate"`
}

type GenerateResponse struct {
	Emails  []string          `json:"emails"`
	Results []provider.Result `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (r *GenerateResponse) PrepareResponse() {
	if r.Emails == nil {
		r.Emails = []string{}
	}
}

type CSVGenerateResponse struct {
	Headers []string               `json:"headers"`
	Mapping csvimport.Mapping      `json:"mapping"`
	Rows    int                    `json:"rows"`
	Emails  []types.GeneratedEmail `json:"emails"`
	Error   string                 `json:"error,omitempty"`
}

func (r *CSVGenerateResponse) PrepareResponse() {
	if r.Headers == nil {
		r.Headers = []string{}
	}

	if r.Emails == nil {
		r.Emails = []types.GeneratedEmail{}
	}
}

type CompareRequest struct {
	Email     string        `json:"email"`
	Emails    []string      `json:"emails"`
	Providers []provider.ID `json:"providers"`
}

type CompareResponse struct {
	Outcomes []compare.Outcome `json:"outcomes"`
	Summary  compare.Summary   `json:"summary"`
	Error    string            `json:"error,omitempty"`
}

func (r *CompareResponse) PrepareResponse() {
	if r.Outcomes == nil {
		r.Outcomes = []compare.Outcome{}
	}
}

type SettingsResponse struct {
	Settings  settings.Settings `json:"settings"`
	Providers []provider.Info   `json:"providers"`
	Error     string            `json:"error,omitempty"`
}

func (r *SettingsResponse) PrepareResponse() {
	if r.Providers == nil {
		r.Providers = []provider.Info{}
	}
}

type ResultsResponse struct {
	Results []provider.Result `json:"results"`
	Total   int               `json:"total"`
	Valid   int               `json:"valid"`
}

func (r *ResultsResponse) PrepareResponse() {
	if r.Results == nil {
		r.Results = []provider.Result{}
	}
}

// ClearResponse reports how many session results were forgotten
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

func (r *ClearResponse) PrepareResponse() {}
