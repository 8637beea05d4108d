package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

const automizelyEndpoint = "https://websites.automizely.com/v1/public/email-verify"

type automizelyRequest struct {
	Emails []string `json:"emails"`
}

type automizelyResponse struct {
	Data []struct {
		Email  string `json:"email"`
		Syntax struct {
			Valid  *bool  `json:"valid"`
			Domain string `json:"domain"`
		} `json:"syntax"`
		HasMXRecords *bool  `json:"has_mx_records"`
		Reachable    string `json:"reachable"`
		Disposable   *bool  `json:"disposable"`
		RoleAccount  *bool  `json:"role_account"`
		Free         *bool  `json:"free"`
		Suggestion   string `json:"suggestion"`
	} `json:"data"`
}

// NewAutomizely returns the adapter for Automizely's public verifier. The API accepts a list, but only one address
// is sent per call.
func NewAutomizely(options ...Option) *Adapter {
	conf := newConfig(Automizely, automizelyEndpoint, options)

	return NewAdapter(Automizely, "Automizely", func(ctx context.Context, email string) (Result, error) {
		payload, err := json.Marshal(automizelyRequest{Emails: []string{email}})
		if err != nil {
			return Result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.endpoint, bytes.NewReader(payload))
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		var data automizelyResponse
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		if len(data.Data) == 0 {
			return Result{}, ErrNoData
		}

		d := data.Data[0]

		var score = 25
		switch d.Reachable {
		case "unknown":
			score = 70
		case "deliverable":
			score = 95
		}

		return Result{
			Email:        d.Email,
			IsValid:      isTrue(d.Syntax.Valid) && isTrue(d.HasMXRecords),
			Score:        Int(score),
			Domain:       d.Syntax.Domain,
			SyntaxValid:  d.Syntax.Valid,
			MXValid:      d.HasMXRecords,
			IsDisposable: d.Disposable,
			IsRole:       d.RoleAccount,
			IsFree:       d.Free,
			Suggestion:   d.Suggestion,
		}, nil
	}, options...)
}
