package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time {
	return testNow
}

type capturedRequest struct {
	Method      string
	Query       url.Values
	ContentType string
	Body        string
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		captured.Method = r.Method
		captured.Query = r.URL.Query()
		captured.ContentType = r.Header.Get("Content-Type")
		captured.Body = string(b)

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))

	t.Cleanup(srv.Close)
	return srv, captured
}

func TestAdapters(t *testing.T) {
	const email = "john.doe@example.com"

	tests := []struct {
		name    string
		new     func(options ...Option) *Adapter
		body    string
		method  string
		request func(t *testing.T, c *capturedRequest)
		expect  Result
	}{
		{
			name:   "mslm mailbox",
			new:    NewMSLM,
			body:   `{"email":"john.doe@example.com","status":"real","has_mailbox":true,"domain":"example.com","disposable":false,"free":false,"role":false,"malformed":false,"mx":[{"host":"mx.example.com"}]}`,
			method: http.MethodGet,
			request: func(t *testing.T, c *capturedRequest) {
				assert.Equal(t, email, c.Query.Get("email"))
			},
			expect: Result{
				Email: email, IsValid: true, Score: Int(95), Domain: "example.com", Status: "real",
				HasMailbox: Bool(true), IsDisposable: Bool(false), IsFree: Bool(false), IsRole: Bool(false),
				SyntaxValid: Bool(true), MXValid: Bool(true),
			},
		},
		{
			name:   "mslm real without mailbox",
			new:    NewMSLM,
			body:   `{"email":"john.doe@example.com","status":"real","has_mailbox":false,"domain":"example.com","mx":[],"suggestion":"john.doe@example.org"}`,
			method: http.MethodGet,
			expect: Result{
				Email: email, IsValid: true, Score: Int(75), Domain: "example.com", Status: "real",
				HasMailbox: Bool(false), SyntaxValid: Bool(true), MXValid: Bool(false), Suggestion: "john.doe@example.org",
			},
		},
		{
			name:   "mslm fake",
			new:    NewMSLM,
			body:   `{"email":"john.doe@example.com","status":"fake","malformed":true}`,
			method: http.MethodGet,
			expect: Result{Email: email, IsValid: false, Score: Int(25), Status: "fake", SyntaxValid: Bool(false)},
		},
		{
			name:   "email-checker success",
			new:    NewEmailChecker,
			body:   `{"success":1}`,
			method: http.MethodGet,
			request: func(t *testing.T, c *capturedRequest) {
				assert.Equal(t, email, c.Query.Get("email"))
			},
			expect: Result{Email: email, IsValid: true, Score: Int(85), Domain: "example.com"},
		},
		{
			name:   "email-checker string flag",
			new:    NewEmailChecker,
			body:   `{"success":"1"}`,
			method: http.MethodGet,
			expect: Result{Email: email, IsValid: false, Score: Int(15), Domain: "example.com"},
		},
		{
			name:   "automizely deliverable",
			new:    NewAutomizely,
			body:   `{"data":[{"email":"john.doe@example.com","syntax":{"valid":true,"domain":"example.com"},"has_mx_records":true,"reachable":"deliverable","disposable":false,"role_account":false,"free":true}]}`,
			method: http.MethodPost,
			request: func(t *testing.T, c *capturedRequest) {
				assert.Equal(t, "application/json", c.ContentType)
				assert.JSONEq(t, `{"emails":["john.doe@example.com"]}`, c.Body)
			},
			expect: Result{
				Email: email, IsValid: true, Score: Int(95), Domain: "example.com", SyntaxValid: Bool(true),
				MXValid: Bool(true), IsDisposable: Bool(false), IsRole: Bool(false), IsFree: Bool(true),
			},
		},
		{
			name:   "automizely unknown without mx",
			new:    NewAutomizely,
			body:   `{"data":[{"email":"john.doe@example.com","syntax":{"valid":true,"domain":"example.com"},"has_mx_records":false,"reachable":"unknown"}]}`,
			method: http.MethodPost,
			expect: Result{Email: email, IsValid: false, Score: Int(70), Domain: "example.com", SyntaxValid: Bool(true), MXValid: Bool(false)},
		},
		{
			name:   "automizely no data",
			new:    NewAutomizely,
			body:   `{"data":[]}`,
			method: http.MethodPost,
			expect: Result{Email: email, IsValid: false, Error: "Automizely API error: No data returned"},
		},
		{
			name:   "mail7 smtp",
			new:    NewMail7,
			body:   `{"email":"john.doe@example.com","valid":true,"smtpValid":true,"mxValid":true,"formatValid":true}`,
			method: http.MethodPost,
			request: func(t *testing.T, c *capturedRequest) {
				assert.JSONEq(t, `{"email":"john.doe@example.com"}`, c.Body)
			},
			expect: Result{
				Email: email, IsValid: true, Score: Int(95), Domain: "example.com",
				SyntaxValid: Bool(true), MXValid: Bool(true), SMTPValid: Bool(true),
			},
		},
		{
			name:   "mail7 format only with error",
			new:    NewMail7,
			body:   `{"email":"john.doe@example.com","valid":false,"smtpValid":false,"mxValid":false,"formatValid":true,"error":"no mx"}`,
			method: http.MethodPost,
			expect: Result{
				Email: email, IsValid: false, Score: Int(50), Domain: "example.com",
				SyntaxValid: Bool(true), MXValid: Bool(false), SMTPValid: Bool(false), Error: "no mx",
			},
		},
		{
			name:   "validate-email safe",
			new:    NewValidateEmail,
			body:   `{"result":{"email":"john.doe@example.com","reachable":"safe","riskScore":{"score":12},"syntax":{"domain":"example.com","valid":true},"smtp":{"is_deliverable":true},"disposable":false,"mx":{"accepts_mail":true}}}`,
			method: http.MethodGet,
			expect: Result{
				Email: email, IsValid: true, Score: Int(88), Domain: "example.com", Status: "safe",
				HasMailbox: Bool(true), IsDisposable: Bool(false), SyntaxValid: Bool(true), MXValid: Bool(true), SMTPValid: Bool(true),
			},
		},
		{
			name:   "validate-email invalid, risk above 100",
			new:    NewValidateEmail,
			body:   `{"result":{"email":"john.doe@example.com","reachable":"invalid","riskScore":{"score":140},"syntax":{"domain":"example.com","valid":true},"smtp":{"is_deliverable":false},"mx":{"accepts_mail":true}}}`,
			method: http.MethodGet,
			expect: Result{
				Email: email, IsValid: false, Score: Int(0), Domain: "example.com", Status: "invalid",
				HasMailbox: Bool(false), SyntaxValid: Bool(true), MXValid: Bool(true), SMTPValid: Bool(false), Error: NotDeliverable,
			},
		},
		{
			name:   "validate-email without risk score",
			new:    NewValidateEmail,
			body:   `{"result":{"email":"john.doe@example.com","reachable":"unknown","syntax":{"domain":"example.com"}}}`,
			method: http.MethodGet,
			expect: Result{Email: email, IsValid: false, Score: Int(50), Domain: "example.com", Status: "unknown"},
		},
		{
			name:   "bazzigate",
			new:    NewBazzigate,
			body:   `{"email":"john.doe@example.com","res":true}`,
			method: http.MethodGet,
			expect: Result{Email: email, IsValid: true, Score: Int(85), Domain: "example.com"},
		},
		{
			name:   "supersend valid",
			new:    NewSuperSend,
			body:   `{"email":"john.doe@example.com","valid":true,"valid_result":{"validators":{"regex":{"valid":true},"mx":{"valid":true},"smtp":{"valid":true}}}}`,
			method: http.MethodGet,
			expect: Result{
				Email: email, IsValid: true, Score: Int(90), Domain: "example.com", Status: "valid",
				SyntaxValid: Bool(true), MXValid: Bool(true), SMTPValid: Bool(true),
			},
		},
		{
			name:   "supersend invalid without validators",
			new:    NewSuperSend,
			body:   `{"email":"john.doe@example.com","valid":false,"message":"Mailbox not found"}`,
			method: http.MethodGet,
			expect: Result{Email: email, IsValid: false, Score: Int(10), Domain: "example.com", Status: "invalid", Error: "Mailbox not found"},
		},
		{
			name:   "site24x7 accepted",
			new:    NewSite24x7,
			body:   `{&quot;results&quot;:{&quot;example.com&quot;:{&quot;john.doe&#x40;example.com&quot;:{&quot;status&quot;:250,&quot;reason&quot;:&quot;OK&quot;}}}}`,
			method: http.MethodPost,
			request: func(t *testing.T, c *capturedRequest) {
				assert.Equal(t, "application/x-www-form-urlencoded", c.ContentType)

				form, err := url.ParseQuery(c.Body)
				require.NoError(t, err)
				assert.Equal(t, email, form.Get("emails"))
			},
			expect: Result{Email: email, IsValid: true, Score: Int(95), Domain: "example.com", Status: "valid", SMTPValid: Bool(true)},
		},
		{
			name:   "site24x7 rejected",
			new:    NewSite24x7,
			body:   `{&quot;results&quot;:{&quot;example.com&quot;:{&quot;john.doe@example.com&quot;:{&quot;status&quot;:550,&quot;reason&quot;:&quot;&lt;mailbox unavailable&gt;&quot;}}}}`,
			method: http.MethodPost,
			expect: Result{
				Email: email, IsValid: false, Score: Int(25), Domain: "example.com", Status: "invalid",
				SMTPValid: Bool(false), Error: "<mailbox unavailable>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, captured := newUpstream(t, http.StatusOK, tt.body)

			a := tt.new(WithEndpoint(srv.URL), WithClock(testClock))
			got := a.Validate(context.Background(), email)

			assert.Equal(t, tt.method, captured.Method)
			if tt.request != nil {
				tt.request(t, captured)
			}

			tt.expect.Provider = a.ID()
			tt.expect.Timestamp = testNow
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestAdapters_NonSuccessStatus(t *testing.T) {
	const email = "jane@example.org"

	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv, _ := newUpstream(t, status, `{"status":"real","valid":true,"res":true}`)

		for _, p := range NewDefaultRegistry(WithEndpoint(srv.URL), WithClock(testClock)).Providers() {
			got := p.Validate(context.Background(), email)

			assert.False(t, got.IsValid, "%s with HTTP %d", p.ID(), status)
			assert.NotEmpty(t, got.Error, "%s with HTTP %d", p.ID(), status)
			assert.Contains(t, got.Error, p.Name()+" API error")
			assert.Equal(t, email, got.Email)
			assert.Equal(t, p.ID(), got.Provider)
			assert.Equal(t, testNow, got.Timestamp)
		}
	}
}

func TestAdapters_MalformedBody(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `<html>maintenance</html>`)

	for _, p := range NewDefaultRegistry(WithEndpoint(srv.URL)).Providers() {
		got := p.Validate(context.Background(), "jane@example.org")

		assert.False(t, got.IsValid, p.ID())
		assert.NotEmpty(t, got.Error, p.ID())
		assert.False(t, got.Timestamp.IsZero(), p.ID())
	}
}

func TestAdapters_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	got := NewBazzigate(WithEndpoint(endpoint)).Validate(context.Background(), "jane@example.org")
	assert.False(t, got.IsValid)
	assert.Contains(t, got.Error, "Bazzigate API error")
}

func TestEndToEnd_GeneratedAddressThroughMSLM(t *testing.T) {
	srv, captured := newUpstream(t, http.StatusOK, `{"status":"real","has_mailbox":true,"domain":"example.com"}`)

	got := NewMSLM(WithEndpoint(srv.URL)).Validate(context.Background(), "john.doe@example.com")

	assert.Equal(t, "john.doe@example.com", captured.Query.Get("email"))
	assert.True(t, got.IsValid)
	assert.Equal(t, 95, got.ScoreValue())
	assert.Equal(t, "john.doe@example.com", got.Email, "the input address is used when the upstream omits it")
}

func TestAdapter_Validate(t *testing.T) {
	t.Run("panic", func(t *testing.T) {
		a := NewAdapter("test", "Test", func(ctx context.Context, email string) (Result, error) {
			panic("boom")
		}, WithClock(testClock))

		var got Result
		assert.NotPanics(t, func() {
			got = a.Validate(context.Background(), "jane@example.org")
		})

		assert.False(t, got.IsValid)
		assert.Contains(t, got.Error, "boom")
		assert.Equal(t, ID("test"), got.Provider)
		assert.Equal(t, testNow, got.Timestamp)
	})

	t.Run("error with outcome", func(t *testing.T) {
		a := NewAdapter("test", "Test", func(ctx context.Context, email string) (Result, error) {
			return Result{IsValid: false, Error: "mailbox full", Score: Int(10)}, nil
		})

		got := a.Validate(context.Background(), "jane@example.org")
		assert.Equal(t, "mailbox full", got.Error)
		assert.Equal(t, 10, got.ScoreValue())
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, _ := newUpstream(t, http.StatusOK, `{"res":true}`)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		got := NewBazzigate(WithEndpoint(srv.URL)).Validate(ctx, "jane@example.org")
		assert.False(t, got.IsValid)
		assert.Contains(t, got.Error, context.Canceled.Error())
	})
}

func TestResult_JSON(t *testing.T) {
	r := Result{
		Email:      "jane@example.org",
		IsValid:    false,
		HasMailbox: Bool(false),
		Provider:   MSLM,
		Timestamp:  testNow,
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"jane@example.org","isValid":false,"hasMailbox":false,"provider":"mslm","timestamp":"2024-03-01T12:00:00Z"}`, string(b))
}

func Test_numberEquals(t *testing.T) {
	tests := []struct {
		raw    string
		expect bool
	}{
		{raw: `250`, expect: true},
		{raw: `250.0`, expect: true},
		{raw: ` 250 `, expect: true},
		{raw: `"250"`, expect: false},
		{raw: `251`, expect: false},
		{raw: `null`, expect: false},
		{raw: ``, expect: false},
		{raw: `true`, expect: false},
	}

	for _, tt := range tests {
		if got := numberEquals(json.RawMessage(tt.raw), 250); got != tt.expect {
			t.Errorf("numberEquals(%q) = %t, expected %t", tt.raw, got, tt.expect)
		}
	}
}

func Test_site24x7Domain(t *testing.T) {
	results := map[string]map[string]site24x7Entry{
		"b.example":   {},
		"a.example":   {},
		"example.org": {},
	}

	got, ok := site24x7Domain(results, "jane@Example.org")
	assert.True(t, ok)
	assert.Equal(t, "example.org", got)

	got, ok = site24x7Domain(results, "jane@other.example")
	assert.True(t, ok)
	assert.Equal(t, "a.example", got)

	_, ok = site24x7Domain(nil, "jane@example.org")
	assert.False(t, ok)
}
