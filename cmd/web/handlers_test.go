package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rohanpatel16/projectverify/cmd/web/config"
	"github.com/Rohanpatel16/projectverify/cmd/web/resultlist"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp/handlers"
	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/testutil"
	"github.com/Rohanpatel16/projectverify/validation"
	testLog "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxBodySize = 1024

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// invalidFor returns a fake result function that rejects the listed addresses
func invalidFor(emails ...string) testutil.ResultFn {
	return func(ctx context.Context, email string) provider.Result {
		for _, e := range emails {
			if e == email {
				return provider.Result{Email: email, Status: "undeliverable"}
			}
		}

		return provider.Result{Email: email, IsValid: true, Score: provider.Int(90)}
	}
}

func newTestService(t *testing.T, providers ...provider.Provider) *validation.Service {
	t.Helper()

	logger, _ := testLog.NewNullLogger()
	return validation.New(context.Background(), testutil.NewRegistry(providers...), settings.NewMemory(),
		validation.WithLogger(logger),
		validation.WithSleep(noSleep),
	)
}

func doRequest(h http.Handler, method string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", body)
	req.Header.Set("Content-Type", "application/json")

	h.ServeHTTP(rec, req)

	return rec
}

func TestNewValidateHandler(t *testing.T) {
	logger, hook := testLog.NewNullLogger()
	svc := newTestService(t, testutil.NewFakeProvider(provider.MSLM, invalidFor("nope@example.org")))

	tests := []struct {
		name        string
		method      string
		requestBody io.Reader
		statusCode  int
	}{
		{name: "correct POST body", method: http.MethodPost, requestBody: strings.NewReader(`{"email":"john@example.org"}`), statusCode: 200},
		{name: "malformed POST body", method: http.MethodPost, requestBody: strings.NewReader("burp"), statusCode: 400},
		{name: "nil POST body", method: http.MethodPost, requestBody: nil, statusCode: 400},
		{name: "too large POST body", method: http.MethodPost, requestBody: strings.NewReader(strings.Repeat(".", maxBodySize+1)), statusCode: 400},
		{name: "empty input", method: http.MethodPost, requestBody: strings.NewReader(`{"email":"  "}`), statusCode: 400},
		{name: "wrong method", method: http.MethodGet, requestBody: nil, statusCode: 405},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()

			rec := doRequest(NewValidateHandler(logger, svc, maxBodySize), tt.method, tt.requestBody)
			if tt.statusCode != rec.Code {
				t.Errorf("NewValidateHandler() = %d, want %d", rec.Code, tt.statusCode)
				t.Logf("Body: %s", rec.Body.String())
				for _, l := range hook.AllEntries() {
					t.Logf("Logs: %s", l.Message)
					t.Logf("Meta: %v", l.Data)
				}
			}
		})
	}

	t.Run("result", func(t *testing.T) {
		rec := doRequest(NewValidateHandler(logger, svc, maxBodySize), http.MethodPost, strings.NewReader(`{"email":"nope@example.org"}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.ValidateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		assert.Equal(t, "nope@example.org", response.Email)
		assert.False(t, response.IsValid)
		assert.Equal(t, provider.MSLM, response.Provider)
	})

	t.Run("allow header", func(t *testing.T) {
		rec := doRequest(NewValidateHandler(logger, svc, maxBodySize), http.MethodGet, nil)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	})
}

func TestNewBulkHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	fake := testutil.NewFakeProvider(provider.MSLM, invalidFor("b@example.org"))
	svc := newTestService(t, fake)

	t.Run("blank addresses are dropped", func(t *testing.T) {
		body := strings.NewReader(`{"emails":["a@example.org"," ","b@example.org",""]}`)
		rec := doRequest(NewBulkHandler(logger, svc, maxBodySize), http.MethodPost, body)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.BulkResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		require.Len(t, response.Results, 2)
		assert.Equal(t, "a@example.org", response.Results[0].Email)
		assert.Equal(t, "b@example.org", response.Results[1].Email)
		assert.Equal(t, 1, response.Valid)
	})

	t.Run("nothing to validate", func(t *testing.T) {
		rec := doRequest(NewBulkHandler(logger, svc, maxBodySize), http.MethodPost, strings.NewReader(`{"emails":[" "]}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too many", func(t *testing.T) {
		emails := make([]string, maxBulkEmails+1)
		for i := range emails {
			emails[i] = "a@b.c"
		}

		b, err := json.Marshal(verifyhttp.BulkRequest{Emails: emails})
		require.NoError(t, err)

		rec := doRequest(NewBulkHandler(logger, svc, int64(len(b))), http.MethodPost, bytes.NewReader(b))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewGenerateHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	fake := testutil.NewFakeProvider(provider.MSLM, nil)
	svc := newTestService(t, fake)
	gen := permutation.New()

	t.Run("without validation", func(t *testing.T) {
		body := strings.NewReader(`{"firstName":"John","lastName":"Doe","domain":"https://www.Example.org/about"}`)
		rec := doRequest(NewGenerateHandler(logger, gen, svc, maxBodySize), http.MethodPost, body)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		assert.Equal(t, permutation.Generate("John", "Doe", "example.org"), response.Emails)
		assert.Empty(t, response.Results)
		assert.Empty(t, fake.Calls())
	})

	t.Run("with validation", func(t *testing.T) {
		body := strings.NewReader(`{"firstName":"John","lastName":"Doe","domain":"example.org","validate":true}`)
		rec := doRequest(NewGenerateHandler(logger, gen, svc, maxBodySize), http.MethodPost, body)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.GenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		require.Len(t, response.Results, permutation.Count)
		assert.Equal(t, "john.doe@example.org", response.Results[0].Email)
		assert.Len(t, fake.Calls(), permutation.Count)
	})

	t.Run("missing name", func(t *testing.T) {
		body := strings.NewReader(`{"firstName":"John","domain":"example.org"}`)
		rec := doRequest(NewGenerateHandler(logger, gen, svc, maxBodySize), http.MethodPost, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func newUpload(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)

		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	return buf, mw.FormDataContentType()
}

func TestNewCSVGenerateHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	gen := permutation.New()

	const contacts = "First Name,Last Name,Website,Company\n" +
		"John,Doe,https://www.example.com/,Acme\n" +
		"Jane,,example.org,Acme\n"

	tests := []struct {
		name       string
		fileName   string
		content    string
		fields     map[string]string
		statusCode int
		emails     int
	}{
		{name: "guessed mapping", fileName: "contacts.csv", content: contacts, statusCode: 200, emails: permutation.Count},
		{name: "explicit mapping", fileName: "contacts.csv", content: contacts, fields: map[string]string{"domain": "Company"}, statusCode: 200, emails: permutation.Count},
		{name: "unknown column", fileName: "contacts.csv", content: contacts, fields: map[string]string{"lastName": "Surname"}, statusCode: 400},
		{name: "missing file", statusCode: 400},
		{name: "legacy spreadsheet", fileName: "contacts.xls", content: contacts, statusCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := newUpload(t, tt.fileName, tt.content, tt.fields)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)

			NewCSVGenerateHandler(logger, gen, 1<<16).ServeHTTP(rec, req)

			require.Equal(t, tt.statusCode, rec.Code, rec.Body.String())
			if tt.statusCode != http.StatusOK {
				return
			}

			var response verifyhttp.CSVGenerateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

			assert.Equal(t, []string{"First Name", "Last Name", "Website", "Company"}, response.Headers)
			assert.Equal(t, "First Name", response.Mapping.FirstName)
			assert.Equal(t, 2, response.Rows)
			require.Len(t, response.Emails, tt.emails)
			assert.Equal(t, 2, response.Emails[0].SourceRow)
		})
	}

	t.Run("guessed domain column", func(t *testing.T) {
		body, contentType := newUpload(t, "contacts.csv", contacts, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)

		NewCSVGenerateHandler(logger, gen, 1<<16).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.CSVGenerateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		assert.Equal(t, "Website", response.Mapping.Domain)
		assert.Equal(t, "john.doe@example.com", response.Emails[0].Email)
	})

	t.Run("not a multipart request", func(t *testing.T) {
		rec := doRequest(NewCSVGenerateHandler(logger, gen, 1<<16), http.MethodPost, strings.NewReader(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewCompareHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	registry := testutil.NewRegistry(
		testutil.NewFakeProvider(provider.MSLM, nil),
		testutil.NewFakeProvider(provider.Mail7, invalidFor("a@example.org")),
	)

	c := compare.New(registry, compare.WithSleep(noSleep))

	t.Run("all providers", func(t *testing.T) {
		body := strings.NewReader(`{"email":"a@example.org","emails":["b@example.org"," "]}`)
		rec := doRequest(NewCompareHandler(logger, c, maxBodySize), http.MethodPost, body)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.CompareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		require.Len(t, response.Outcomes, 4)
		assert.Equal(t, "a@example.org", response.Outcomes[0].Email)
		assert.Equal(t, provider.MSLM, response.Outcomes[0].Provider)
		assert.Equal(t, provider.Mail7, response.Outcomes[1].Provider)
		assert.False(t, response.Outcomes[1].Result.IsValid)
		assert.Equal(t, "b@example.org", response.Outcomes[2].Email)

		assert.Equal(t, 4, response.Summary.Total)
		assert.Equal(t, 4, response.Summary.Successful)
		assert.Empty(t, response.Error)
	})

	t.Run("selected provider", func(t *testing.T) {
		body := strings.NewReader(`{"email":"a@example.org","providers":["mail7"]}`)
		rec := doRequest(NewCompareHandler(logger, c, maxBodySize), http.MethodPost, body)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.CompareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		require.Len(t, response.Outcomes, 1)
		assert.Equal(t, provider.Mail7, response.Outcomes[0].Provider)
	})

	t.Run("unregistered provider", func(t *testing.T) {
		body := strings.NewReader(`{"email":"a@example.org","providers":["bazzigate"]}`)
		rec := doRequest(NewCompareHandler(logger, c, maxBodySize), http.MethodPost, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no address", func(t *testing.T) {
		rec := doRequest(NewCompareHandler(logger, c, maxBodySize), http.MethodPost, strings.NewReader(`{"email":""}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewSettingsHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	svc := newTestService(t, testutil.NewFakeProvider(provider.MSLM, nil), testutil.NewFakeProvider(provider.Mail7, nil))

	t.Run("GET", func(t *testing.T) {
		rec := doRequest(NewSettingsHandler(logger, svc, maxBodySize), http.MethodGet, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.SettingsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		assert.Equal(t, settings.Defaults(), response.Settings)
		assert.Len(t, response.Providers, 2)
	})

	t.Run("GET describes the providers", func(t *testing.T) {
		svc := newTestService(t, provider.NewMSLM(), provider.NewMail7(provider.WithEndpoint("http://127.0.0.1:9/mail7")))

		rec := doRequest(NewSettingsHandler(logger, svc, maxBodySize), http.MethodGet, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.SettingsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		require.Len(t, response.Providers, 2)
		assert.Equal(t, provider.MSLM, response.Providers[0].ID)
		assert.Equal(t, http.MethodGet, response.Providers[0].Method)
		assert.Equal(t, "https://mslm.io/api/sv/v1", response.Providers[0].Endpoint)
		assert.True(t, response.Providers[0].Supports(provider.FeatureGravatar))

		assert.Equal(t, provider.Mail7, response.Providers[1].ID)
		assert.Equal(t, http.MethodPost, response.Providers[1].Method)
		assert.Equal(t, "http://127.0.0.1:9/mail7", response.Providers[1].Endpoint)
		assert.True(t, response.Providers[1].Supports(provider.FeatureSMTPDebug))
	})

	t.Run("PUT valid", func(t *testing.T) {
		body := strings.NewReader(`{"provider":"mail7","batchSize":2,"timeout":1000}`)
		rec := doRequest(NewSettingsHandler(logger, svc, maxBodySize), http.MethodPut, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, provider.Mail7, svc.Provider())
		assert.Equal(t, 2, svc.Settings().BatchSize)
	})

	t.Run("PUT invalid", func(t *testing.T) {
		body := strings.NewReader(`{"provider":"mslm","batchSize":0,"timeout":1000}`)
		rec := doRequest(NewSettingsHandler(logger, svc, maxBodySize), http.MethodPut, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		assert.Equal(t, provider.Mail7, svc.Provider(), "Expected the settings to be unchanged")
	})

	t.Run("DELETE", func(t *testing.T) {
		rec := doRequest(NewSettingsHandler(logger, svc, maxBodySize), http.MethodDelete, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func newTestResultList(t *testing.T, results ...provider.Result) *resultlist.ResultList {
	t.Helper()

	list := resultlist.New(&testutil.MockHasher{}, 0)
	for _, r := range results {
		require.NoError(t, list.Add(r))
	}

	return list
}

var testNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestNewResultsHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	list := newTestResultList(t,
		provider.Result{Email: "john@example.org", IsValid: true, Provider: provider.MSLM, Timestamp: testNow},
		provider.Result{Email: "jdoe@example.org", Provider: provider.MSLM, Timestamp: testNow},
	)

	t.Run("all", func(t *testing.T) {
		rec := doRequest(NewResultsHandler(logger, list), http.MethodGet, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.ResultsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		assert.Len(t, response.Results, 2)
		assert.Equal(t, 2, response.Total)
		assert.Equal(t, 1, response.Valid)
	})

	t.Run("valid only", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewResultsHandler(logger, list).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?valid=true", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var response verifyhttp.ResultsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

		require.Len(t, response.Results, 1)
		assert.Equal(t, "john@example.org", response.Results[0].Email)
		assert.Equal(t, 2, response.Total)
	})

	t.Run("clear", func(t *testing.T) {
		list := newTestResultList(t,
			provider.Result{Email: "john@example.org", IsValid: true, Provider: provider.MSLM, Timestamp: testNow},
		)

		rec := doRequest(NewResultsHandler(logger, list), http.MethodDelete, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"cleared":1}`, rec.Body.String())

		assert.Empty(t, list.Results())
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := doRequest(NewResultsHandler(logger, list), http.MethodPost, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Len(t, list.Results(), 2)
	})
}

func TestNewResultsCSVHandler(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	list := newTestResultList(t,
		provider.Result{Email: "john@example.org", IsValid: true, Score: provider.Int(80), Provider: provider.MSLM, Timestamp: testNow},
		provider.Result{Email: "jdoe@example.org", Provider: provider.MSLM, Timestamp: testNow},
	)

	now := func() time.Time {
		return testNow
	}

	t.Run("all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewResultsCSVHandler(logger, list, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="email-results-2024-03-09.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, 3, strings.Count(rec.Body.String(), "\n"))
	})

	t.Run("valid only", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewResultsCSVHandler(logger, list, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?valid=true", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="valid-emails-2024-03-09.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "Email,Score,Provider,Timestamp,First Name,Last Name,Domain\n"+
			"john@example.org,80,mslm,2024-03-09T14:05:07.000Z,,,\n", rec.Body.String())
	})
}

func TestNewHealthHandler(t *testing.T) {
	logger, hook := testLog.NewNullLogger()

	t.Run("simple GET", func(t *testing.T) {

		hook.Reset()
		handlerFunc := NewHealthHandler(logger)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handlerFunc.ServeHTTP(rec, req)

		want := 200
		if rec.Code != want {
			t.Errorf("NewHealthHandler() = %+v, want %+v", rec, want)
		}
	})
}

func TestNewBulkHandler_OutlastsServerTimeout(t *testing.T) {
	logger, _ := testLog.NewNullLogger()
	fake := testutil.NewFakeProvider(provider.MSLM, invalidFor())
	svc := validation.New(context.Background(), testutil.NewRegistry(fake), settings.NewMemory(),
		validation.WithLogger(logger),
		validation.WithBatchDelay(400*time.Millisecond),
	)
	require.NoError(t, svc.SaveSettings(context.Background(), settings.Settings{Provider: provider.MSLM, BatchSize: 1, Timeout: 1000}))

	conf := config.Defaults()
	conf.Server.ListenOn = "127.0.0.1:0"
	conf.Server.NetTTL = config.NewDuration(500 * time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("/validate/bulk", NewBulkHandler(logger, svc, maxBodySize))

	server, err := verifyhttp.NewServer(mux, conf, logger, io.Discard,
		handlers.WithDeadlineControl(),
		handlers.WithRequestLogger(logger),
		handlers.WithGzipHandler(),
	)
	require.NoError(t, err)

	go func() {
		_ = server.Serve()
	}()
	defer func() {
		_ = server.Shutdown(context.Background())
	}()

	// Two batch delays alone take longer than the server's timeout
	body := strings.NewReader(`{"emails":["a@example.org","b@example.org","c@example.org"]}`)
	resp, err := http.Post("http://"+server.Addr().String()+"/validate/bulk", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response verifyhttp.BulkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))

	assert.Len(t, response.Results, 3)
	assert.Equal(t, 3, response.Valid)
	assert.Len(t, fake.Calls(), 3)
}
