package provider

import (
	"net/http"
	"time"
)

type config struct {
	id       ID
	endpoint string
	client   Doer
	clock    func() time.Time
}

type Option func(conf *config)

// WithEndpoint overrides the upstream URL of every adapter the option is given to
func WithEndpoint(endpoint string) Option {
	return func(conf *config) {
		conf.endpoint = endpoint
	}
}

// WithEndpointFor overrides the upstream URL, but only for the adapter with the matching ID
func WithEndpointFor(id ID, endpoint string) Option {
	return func(conf *config) {
		if conf.id == id && endpoint != "" {
			conf.endpoint = endpoint
		}
	}
}

// WithClient sets the HTTP client used to reach the upstream API
func WithClient(client Doer) Option {
	return func(conf *config) {
		conf.client = client
	}
}

// WithClock sets the function used to stamp results
func WithClock(fn func() time.Time) Option {
	return func(conf *config) {
		conf.clock = fn
	}
}

func newConfig(id ID, endpoint string, options []Option) config {
	conf := config{
		id:       id,
		endpoint: endpoint,
		client:   http.DefaultClient,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range options {
		opt(&conf)
	}

	return conf
}
