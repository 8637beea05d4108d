package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Rohanpatel16/projectverify/types"
	"golang.org/x/net/html"
)

const site24x7Endpoint = "https://www.site24x7.com/tools/email-validator"

const smtpOK = 250

type site24x7Entry struct {
	Status json.RawMessage `json:"status"`
	Reason string          `json:"reason"`
}

type site24x7Response struct {
	Results map[string]map[string]site24x7Entry `json:"results"`
}

// NewSite24x7 returns the adapter for Site24x7's email validator. The upstream answers with JSON in which the
// characters are HTML entity encoded, the body is decoded before it's parsed.
func NewSite24x7(options ...Option) *Adapter {
	conf := newConfig(Site24x7, site24x7Endpoint, options)

	return NewAdapter(Site24x7, "Site24x7", func(ctx context.Context, email string) (Result, error) {
		form := url.Values{}
		form.Set("emails", email)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		body, err := fetch(conf.client, req)
		if err != nil {
			return Result{}, err
		}

		var data site24x7Response
		if err := decodeJSON([]byte(html.UnescapeString(string(body))), &data); err != nil {
			return Result{}, err
		}

		domain, ok := site24x7Domain(data.Results, email)
		if !ok {
			return Result{}, ErrNoData
		}

		entry, ok := site24x7Lookup(data.Results[domain], email)
		if !ok {
			return Result{}, fmt.Errorf("%w, no result for %q", ErrMalformedResponse, email)
		}

		valid := numberEquals(entry.Status, smtpOK)
		r := Result{
			Email:     email,
			IsValid:   valid,
			Score:     scoreFrom(valid, 95, 25),
			Domain:    domain,
			Status:    "invalid",
			SMTPValid: Bool(valid),
		}

		if valid {
			r.Status = "valid"
		} else {
			r.Error = entry.Reason
		}

		return r, nil
	}, options...)
}

// site24x7Domain picks the key under which the result was reported. A single key is used as-is, otherwise the key
// matching the address' domain wins and the lowest sorted key is the last resort.
func site24x7Domain(results map[string]map[string]site24x7Entry, email string) (string, bool) {
	if len(results) == 0 {
		return "", false
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}

	if len(keys) == 1 {
		return keys[0], true
	}

	sort.Strings(keys)

	want := types.DomainOf(email)
	for _, k := range keys {
		if strings.EqualFold(k, want) {
			return k, true
		}
	}

	return keys[0], true
}

func site24x7Lookup(entries map[string]site24x7Entry, email string) (site24x7Entry, bool) {
	if e, ok := entries[email]; ok {
		return e, true
	}

	for k, e := range entries {
		if strings.EqualFold(k, email) {
			return e, true
		}
	}

	return site24x7Entry{}, false
}
