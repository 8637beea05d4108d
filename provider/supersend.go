package provider

import (
	"context"
	"net/http"

	"github.com/Rohanpatel16/projectverify/types"
)

const superSendEndpoint = "https://api.supersend.io/v1/verify-email"

type superSendValidator struct {
	Valid *bool `json:"valid"`
}

type superSendResponse struct {
	Email       string `json:"email"`
	Valid       bool   `json:"valid"`
	Message     string `json:"message"`
	ValidResult *struct {
		Validators *struct {
			Regex *superSendValidator `json:"regex"`
			MX    *superSendValidator `json:"mx"`
			SMTP  *superSendValidator `json:"smtp"`
		} `json:"validators"`
	} `json:"valid_result"`
}

// NewSuperSend returns the adapter for SuperSend. Individual validator outcomes are optional in the response.
func NewSuperSend(options ...Option) *Adapter {
	conf := newConfig(SuperSend, superSendEndpoint, options)

	return NewAdapter(SuperSend, "SuperSend", func(ctx context.Context, email string) (Result, error) {
		u, err := withQuery(conf.endpoint, email)
		if err != nil {
			return Result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Accept", "application/json")

		var data superSendResponse
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		r := Result{
			Email:   data.Email,
			IsValid: data.Valid,
			Score:   scoreFrom(data.Valid, 90, 10),
			Domain:  types.DomainOf(email),
			Status:  "invalid",
		}

		if data.Valid {
			r.Status = "valid"
		} else {
			r.Error = data.Message
		}

		if data.ValidResult != nil && data.ValidResult.Validators != nil {
			v := data.ValidResult.Validators
			r.SyntaxValid = validatorOutcome(v.Regex)
			r.MXValid = validatorOutcome(v.MX)
			r.SMTPValid = validatorOutcome(v.SMTP)
		}

		return r, nil
	}, options...)
}

func validatorOutcome(v *superSendValidator) *bool {
	if v == nil {
		return nil
	}

	return v.Valid
}
