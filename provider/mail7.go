package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/Rohanpatel16/projectverify/types"
)

const mail7Endpoint = "https://mail7.net/api/validate-single"

type mail7Request struct {
	Email string `json:"email"`
}

type mail7Response struct {
	Email       string `json:"email"`
	Valid       bool   `json:"valid"`
	SMTPValid   *bool  `json:"smtpValid"`
	MXValid     *bool  `json:"mxValid"`
	FormatValid *bool  `json:"formatValid"`
	Error       string `json:"error"`
}

// NewMail7 returns the adapter for mail7.net. The score reflects the deepest check that passed.
func NewMail7(options ...Option) *Adapter {
	conf := newConfig(Mail7, mail7Endpoint, options)

	return NewAdapter(Mail7, "Mail7.net", func(ctx context.Context, email string) (Result, error) {
		payload, err := json.Marshal(mail7Request{Email: email})
		if err != nil {
			return Result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.endpoint, bytes.NewReader(payload))
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Content-Type", "application/json")

		var data mail7Response
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		var score = 25
		switch {
		case isTrue(data.SMTPValid):
			score = 95
		case isTrue(data.MXValid):
			score = 75
		case isTrue(data.FormatValid):
			score = 50
		}

		return Result{
			Email:       data.Email,
			IsValid:     data.Valid,
			Score:       Int(score),
			Domain:      types.DomainOf(email),
			SyntaxValid: data.FormatValid,
			MXValid:     data.MXValid,
			SMTPValid:   data.SMTPValid,
			Error:       data.Error,
		}, nil
	}, options...)
}
