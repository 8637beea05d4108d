package provider

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Rohanpatel16/projectverify/types"
)

const emailCheckerEndpoint = "https://email-checker.space/check_mailer.php"

type emailCheckerResponse struct {
	Success json.RawMessage `json:"success"`
}

// NewEmailChecker returns the adapter for email-checker.space. The upstream only reports a success flag, the domain is
// taken from the address itself.
func NewEmailChecker(options ...Option) *Adapter {
	conf := newConfig(EmailChecker, emailCheckerEndpoint, options)

	return NewAdapter(EmailChecker, "Email-checker.space", func(ctx context.Context, email string) (Result, error) {
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

		var data emailCheckerResponse
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		ok := numberEquals(data.Success, 1)
		return Result{
			Email:   email,
			IsValid: ok,
			Score:   scoreFrom(ok, 85, 15),
			Domain:  types.DomainOf(email),
		}, nil
	}, options...)
}
