package provider

import (
	"context"
	"math"
	"net/http"
)

const validateEmailEndpoint = "https://api.validate.email/validate"

// NotDeliverable is reported by validate.email adapters for addresses classified as invalid
const NotDeliverable = "Email not deliverable"

type validateEmailResponse struct {
	Result *struct {
		Email     string `json:"email"`
		Reachable string `json:"reachable"`
		RiskScore *struct {
			Score float64 `json:"score"`
		} `json:"riskScore"`
		Syntax struct {
			Domain string `json:"domain"`
			Valid  *bool  `json:"valid"`
		} `json:"syntax"`
		SMTP struct {
			IsDeliverable *bool `json:"is_deliverable"`
		} `json:"smtp"`
		Disposable *bool `json:"disposable"`
		MX         struct {
			AcceptsMail *bool `json:"accepts_mail"`
		} `json:"mx"`
	} `json:"result"`
}

// NewValidateEmail returns the adapter for validate.email. A reported risk score is inverted into the result's score.
func NewValidateEmail(options ...Option) *Adapter {
	conf := newConfig(ValidateEmail, validateEmailEndpoint, options)

	return NewAdapter(ValidateEmail, "Validate.email", func(ctx context.Context, email string) (Result, error) {
		u, err := withQuery(conf.endpoint, email)
		if err != nil {
			return Result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return Result{}, err
		}

		req.Header.Set("Accept", "application/json")

		var data validateEmailResponse
		if err := fetchJSON(conf.client, req, &data); err != nil {
			return Result{}, err
		}

		if data.Result == nil {
			return Result{}, ErrNoData
		}

		d := data.Result

		var score = 50
		if d.RiskScore != nil {
			score = clampScore(100 - d.RiskScore.Score)
		}

		r := Result{
			Email:        d.Email,
			IsValid:      d.Reachable == "safe",
			Score:        Int(score),
			Domain:       d.Syntax.Domain,
			Status:       d.Reachable,
			HasMailbox:   d.SMTP.IsDeliverable,
			IsDisposable: d.Disposable,
			SyntaxValid:  d.Syntax.Valid,
			MXValid:      d.MX.AcceptsMail,
			SMTPValid:    d.SMTP.IsDeliverable,
		}

		if d.Reachable == "invalid" {
			r.Error = NotDeliverable
		}

		return r, nil
	}, options...)
}

func clampScore(v float64) int {
	s := int(math.Round(v))
	if s < 0 {
		return 0
	}

	if s > 100 {
		return 100
	}

	return s
}
