package provider

import (
	"context"
	"net/http"

	"github.com/Rohanpatel16/projectverify/types"
)

const bazzigateEndpoint = "https://emailverifiers-backend.bazzigate.com/single-email-varification"

type bazzigateResponse struct {
	Email string `json:"email"`
	Res   bool   `json:"res"`
}

// NewBazzigate returns the adapter for Bazzigate's email verifier
func NewBazzigate(options ...Option) *Adapter {
	conf := newConfig(Bazzigate, bazzigateEndpoint, options)

	return NewAdapter(Bazzigate, "Bazzigate", func(ctx context.Context, email string) (Result, error) {
		u, err := withQuery(conf.endpoint, email)
		if err != nil {
			return Result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Accept", "application/json")

		var data bazzigateResponse
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		return Result{
			Email:   data.Email,
			IsValid: data.Res,
			Score:   scoreFrom(data.Res, 85, 15),
			Domain:  types.DomainOf(email),
		}, nil
	}, options...)
}
