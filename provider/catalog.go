package provider

import "net/http"

// Feature is a capability an upstream API reports on
type Feature string

const (
	FeatureSyntax     Feature = "syntax"
	FeatureDomain     Feature = "domain"
	FeatureMailbox    Feature = "mailbox"
	FeatureDisposable Feature = "disposable"
	FeatureRole       Feature = "role"
	FeatureGravatar   Feature = "gravatar"
	FeatureRiskScore  Feature = "risk-score"
	FeatureSMTPDebug  Feature = "smtp-debug"
)

// Info describes an adapter: how it reaches its API and what the API reports
type Info struct {
	ID       ID        `json:"id"`
	Name     string    `json:"name"`
	Method   string    `json:"method,omitempty"`
	Endpoint string    `json:"endpoint,omitempty"`
	Features []Feature `json:"features"`
}

// Supports returns true if the API reports on f
func (i Info) Supports(f Feature) bool {
	for _, have := range i.Features {
		if have == f {
			return true
		}
	}

	return false
}

// Describer is implemented by providers that can describe themselves
type Describer interface {
	Info() Info
}

type catalogEntry struct {
	method   string
	endpoint string
	features []Feature
}

var catalog = map[ID]catalogEntry{
	MSLM: {
		method:   http.MethodGet,
		endpoint: mslmEndpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox, FeatureDisposable, FeatureRole, FeatureGravatar},
	},
	EmailChecker: {
		method:   http.MethodGet,
		endpoint: emailCheckerEndpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox},
	},
	Automizely: {
		method:   http.MethodPost,
		endpoint: automizelyEndpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox, FeatureDisposable, FeatureRole},
	},
	Mail7: {
		method:   http.MethodPost,
		endpoint: mail7Endpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox, FeatureSMTPDebug},
	},
	ValidateEmail: {
		method:   http.MethodGet,
		endpoint: validateEmailEndpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox, FeatureDisposable, FeatureGravatar, FeatureRiskScore, FeatureSMTPDebug},
	},
	Bazzigate: {
		method:   http.MethodGet,
		endpoint: bazzigateEndpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox},
	},
	SuperSend: {
		method:   http.MethodGet,
		endpoint: superSendEndpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox, FeatureDisposable, FeatureSMTPDebug},
	},
	Site24x7: {
		method:   http.MethodPost,
		endpoint: site24x7Endpoint,
		features: []Feature{FeatureSyntax, FeatureDomain, FeatureMailbox, FeatureSMTPDebug},
	},
}

// Describe returns the Info of p. Providers that don't implement Describer are described by ID and name only.
func Describe(p Provider) Info {
	if d, ok := p.(Describer); ok {
		return d.Info()
	}

	return Info{ID: p.ID(), Name: p.Name(), Features: []Feature{}}
}

// Catalog describes the registered providers, in registration order
func (r *Registry) Catalog() []Info {
	providers := r.Providers()

	result := make([]Info, 0, len(providers))
	for _, p := range providers {
		result = append(result, Describe(p))
	}

	return result
}
