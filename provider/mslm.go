package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const mslmEndpoint = "https://mslm.io/api/sv/v1"

type mslmResponse struct {
	Email      string            `json:"email"`
	Status     string            `json:"status"`
	HasMailbox *bool             `json:"has_mailbox"`
	Domain     string            `json:"domain"`
	Disposable *bool             `json:"disposable"`
	Free       *bool             `json:"free"`
	Role       *bool             `json:"role"`
	Malformed  *bool             `json:"malformed"`
	MX         []json.RawMessage `json:"mx"`
	Suggestion string            `json:"suggestion"`
}

// NewMSLM returns the adapter for mslm.io
func NewMSLM(options ...Option) *Adapter {
	conf := newConfig(MSLM, mslmEndpoint, options)

	return NewAdapter(MSLM, "MSLM.io", func(ctx context.Context, email string) (Result, error) {
		u, err := withQuery(conf.endpoint, email)
		if err != nil {
			return Result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Accept", "*/*")
		req.Header.Set("User-Agent", browserUserAgent)

		var data mslmResponse
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		isReal := data.Status == "real"

		var score = 25
		switch {
		case isTrue(data.HasMailbox):
			score = 95
		case isReal:
			score = 75
		}

		r := Result{
			Email:        data.Email,
			IsValid:      isReal,
			Score:        Int(score),
			Domain:       data.Domain,
			Status:       data.Status,
			HasMailbox:   data.HasMailbox,
			IsDisposable: data.Disposable,
			IsFree:       data.Free,
			IsRole:       data.Role,
			SyntaxValid:  Bool(!isTrue(data.Malformed)),
			Suggestion:   data.Suggestion,
		}

		if data.MX != nil {
			r.MXValid = Bool(len(data.MX) > 0)
		}

		return r, nil
	}, options...)
}

// withQuery adds the address as the "email" query parameter, keeping any parameters already present
func withQuery(endpoint, email string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("email", email)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
