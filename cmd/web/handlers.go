package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rohanpatel16/projectverify/cmd/web/resultlist"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp/handlers"
	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/csvimport"
	"github.com/Rohanpatel16/projectverify/export"
	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/validation"
	"github.com/sirupsen/logrus"
)

const (
	failedRequestError  = "Request failed, unable to parse request body. Expected JSON."
	failedResponseError = "Generating response failed."
	missingEmailError   = "Request failed, missing e-mail address."
	tooManyEmailsError  = "Request failed, too many e-mail addresses."
	missingNameError    = "Request failed, first name, last name and domain are required."

	maxBulkEmails = 1000

	// responseSlack is added to the worst case duration of a long running request
	responseSlack = 10 * time.Second
)

// extendDeadline makes room on the connection for work taking up to d, an unbounded run lifts the deadlines
func extendDeadline(logger logrus.FieldLogger, r *http.Request, d time.Duration, bounded bool) {
	if bounded {
		d += responseSlack
	} else {
		d = 0
	}

	if err := handlers.ExtendDeadline(r.Context(), d); err != nil {
		logger.WithError(err).Debug("Unable to extend the connection deadline")
	}
}

// readJSONRequest decodes the body into v, on failure the response has been written
func readJSONRequest(logger logrus.FieldLogger, w http.ResponseWriter, r *http.Request, maxBodySize int64, v interface{}) bool {
	body, err := verifyhttp.GetBodyFromHTTPRequest(r, maxBodySize)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":          err,
			"content_length": r.ContentLength,
		}).Error("Error handling request")

		// err is expected to be safe to expose to the client
		writeErrorJSONResponse(logger, w, http.StatusBadRequest, err.Error())
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		logger.WithError(err).Error("Error handling request body")
		writeErrorJSONResponse(logger, w, http.StatusBadRequest, failedRequestError)
		return false
	}

	return true
}

func requestLogger(logger logrus.FieldLogger, r *http.Request) logrus.FieldLogger {
	return logger.WithField(handlers.RequestID.String(), r.Context().Value(handlers.RequestID))
}

// cleanEmails trims the addresses and drops the blank ones
func cleanEmails(emails []string) []string {
	result := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			result = append(result, e)
		}
	}

	return result
}

func countValid(results []provider.Result) int {
	var n int
	for _, r := range results {
		if r.IsValid {
			n++
		}
	}

	return n
}

// NewValidateHandler validates a single address with the configured provider
func NewValidateHandler(logger logrus.FieldLogger, svc *validation.Service, maxBodySize int64) http.HandlerFunc {
	logger = logger.WithField("handler", "validate")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)
		defer deferClose(r.Body, logger)

		if !allowMethod(logger, w, r, http.MethodPost) {
			return
		}

		var req verifyhttp.ValidateRequest
		if !readJSONRequest(logger, w, r, maxBodySize, &req) {
			return
		}

		email := strings.TrimSpace(req.Email)
		if email == "" {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, missingEmailError)
			return
		}

		result := svc.ValidateEmail(r.Context(), email)

		logger.WithFields(logrus.Fields{
			"provider": result.Provider,
			"valid":    result.IsValid,
		}).Debug("Done performing validation")

		writeJSONResponse(logger, w, http.StatusOK, &verifyhttp.ValidateResponse{Result: result})
	}
}

// NewBulkHandler validates a list of addresses in batches
func NewBulkHandler(logger logrus.FieldLogger, svc *validation.Service, maxBodySize int64) http.HandlerFunc {
	logger = logger.WithField("handler", "bulk")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)
		defer deferClose(r.Body, logger)

		if !allowMethod(logger, w, r, http.MethodPost) {
			return
		}

		var req verifyhttp.BulkRequest
		if !readJSONRequest(logger, w, r, maxBodySize, &req) {
			return
		}

		emails := cleanEmails(req.Emails)
		if len(emails) == 0 {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, missingEmailError)
			return
		}

		if len(emails) > maxBulkEmails {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, tooManyEmailsError)
			return
		}

		d, bounded := svc.MaxBulkDuration(len(emails))
		extendDeadline(logger, r, d, bounded)

		results := svc.ValidateBulkEmails(r.Context(), emails)

		logger.WithFields(logrus.Fields{
			"emails": len(emails),
		}).Debug("Done performing bulk validation")

		writeJSONResponse(logger, w, http.StatusOK, &verifyhttp.BulkResponse{
			Results: results,
			Valid:   countValid(results),
		})
	}
}

// NewGenerateHandler returns the permutations for a name and domain, optionally validated
func NewGenerateHandler(logger logrus.FieldLogger, gen *permutation.Generator, svc *validation.Service, maxBodySize int64) http.HandlerFunc {
	logger = logger.WithField("handler", "generate")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)
		defer deferClose(r.Body, logger)

		if !allowMethod(logger, w, r, http.MethodPost) {
			return
		}

		var req verifyhttp.GenerateRequest
		if !readJSONRequest(logger, w, r, maxBodySize, &req) {
			return
		}

		domain := csvimport.CleanDomain(req.Domain)
		if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" || domain == "" {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, missingNameError)
			return
		}

		emails := gen.Generate(req.FirstName, req.LastName, domain)

		response := verifyhttp.GenerateResponse{
			Emails: emails,
		}

		if req.Validate {
			d, bounded := svc.MaxBulkDuration(len(emails))
			extendDeadline(logger, r, d, bounded)

			response.Results = svc.ValidateBulkEmails(r.Context(), emails)
		}

		writeJSONResponse(logger, w, http.StatusOK, &response)
	}
}

// NewCSVGenerateHandler reads a multipart upload in the "file" field. The "firstName", "lastName" and "domain" fields
// name the columns, unnamed columns are guessed from the headers.
func NewCSVGenerateHandler(logger logrus.FieldLogger, gen *permutation.Generator, maxBodySize int64) http.HandlerFunc {
	logger = logger.WithField("handler", "csv_generate")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)
		defer deferClose(r.Body, logger)

		if !allowMethod(logger, w, r, http.MethodPost) {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			logger.WithError(err).Error("Error parsing the upload")
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, "Request failed, expected a multipart upload.")
			return
		}

		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, "Request failed, missing the \"file\" field.")
			return
		}

		defer deferClose(file, logger)

		b, err := io.ReadAll(file)
		if err != nil {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, verifyhttp.ErrInvalidRequest.Error())
			return
		}

		table, err := csvimport.ParseUpload(header.Filename, b)
		if err != nil {
			logger.WithError(err).Warn("Unable to parse the upload")
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, err.Error())
			return
		}

		mapping := csvimport.Guess(table.Headers)
		if v := r.FormValue("firstName"); v != "" {
			mapping.FirstName = v
		}

		if v := r.FormValue("lastName"); v != "" {
			mapping.LastName = v
		}

		if v := r.FormValue("domain"); v != "" {
			mapping.Domain = v
		}

		response := verifyhttp.CSVGenerateResponse{
			Headers: table.Headers,
			Mapping: mapping,
			Rows:    len(table.Rows),
		}

		response.Emails, err = csvimport.Generate(table, mapping, gen)
		if err != nil {
			response.Error = err.Error()
			writeJSONResponse(logger, w, http.StatusBadRequest, &response)
			return
		}

		logger.WithFields(logrus.Fields{
			"rows":   len(table.Rows),
			"emails": len(response.Emails),
		}).Debug("Generated addresses from upload")

		writeJSONResponse(logger, w, http.StatusOK, &response)
	}
}

// NewCompareHandler runs a single address, or a list of them, through several providers
func NewCompareHandler(logger logrus.FieldLogger, c *compare.Comparer, maxBodySize int64) http.HandlerFunc {
	logger = logger.WithField("handler", "compare")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)
		defer deferClose(r.Body, logger)

		if !allowMethod(logger, w, r, http.MethodPost) {
			return
		}

		var req verifyhttp.CompareRequest
		if !readJSONRequest(logger, w, r, maxBodySize, &req) {
			return
		}

		emails := cleanEmails(append([]string{req.Email}, req.Emails...))
		if len(emails) == 0 {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, missingEmailError)
			return
		}

		if len(emails) > maxBulkEmails {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, tooManyEmailsError)
			return
		}

		providers, err := c.Providers(req.Providers)
		if err != nil {
			writeErrorJSONResponse(logger, w, http.StatusBadRequest, err.Error())
			return
		}

		d, bounded := c.MaxDuration(len(emails), len(providers))
		extendDeadline(logger, r, d, bounded)

		outcomes, err := c.Bulk(r.Context(), emails, req.Providers)

		response := verifyhttp.CompareResponse{
			Outcomes: outcomes,
			Summary:  compare.Stats(outcomes),
		}

		if err != nil {
			logger.WithError(err).Warn("Comparison interrupted")
			response.Error = err.Error()
		}

		writeJSONResponse(logger, w, http.StatusOK, &response)
	}
}

// NewSettingsHandler returns the settings on GET and replaces them on PUT
func NewSettingsHandler(logger logrus.FieldLogger, svc *validation.Service, maxBodySize int64) http.HandlerFunc {
	logger = logger.WithField("handler", "settings")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)
		defer deferClose(r.Body, logger)

		if !allowMethod(logger, w, r, http.MethodGet, http.MethodPut) {
			return
		}

		if r.Method == http.MethodPut {
			var s settings.Settings
			if !readJSONRequest(logger, w, r, maxBodySize, &s) {
				return
			}

			if err := svc.SaveSettings(r.Context(), s); err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, settings.ErrInvalidSettings) {
					status = http.StatusBadRequest
				}

				logger.WithError(err).Warn("Unable to save settings")
				writeErrorJSONResponse(logger, w, status, err.Error())
				return
			}
		}

		response := verifyhttp.SettingsResponse{
			Settings: svc.Settings(),
		}

		response.Providers = svc.Registry().Catalog()

		writeJSONResponse(logger, w, http.StatusOK, &response)
	}
}

// NewResultsHandler returns the results of this session on GET and forgets them on DELETE
func NewResultsHandler(logger logrus.FieldLogger, list *resultlist.ResultList) http.HandlerFunc {
	logger = logger.WithField("handler", "results")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)

		if !allowMethod(logger, w, r, http.MethodGet, http.MethodDelete) {
			return
		}

		if r.Method == http.MethodDelete {
			n := list.Clear()
			logger.WithField("cleared", n).Info("Session results cleared")

			writeJSONResponse(logger, w, http.StatusOK, &verifyhttp.ClearResponse{Cleared: n})
			return
		}

		all := list.Results()
		response := verifyhttp.ResultsResponse{
			Results: all,
			Total:   len(all),
			Valid:   countValid(all),
		}

		if r.URL.Query().Get("valid") == "true" {
			response.Results = list.Valid()
		}

		writeJSONResponse(logger, w, http.StatusOK, &response)
	}
}

// NewResultsCSVHandler exports the results of this session as a CSV download
func NewResultsCSVHandler(logger logrus.FieldLogger, list *resultlist.ResultList, now func() time.Time) http.HandlerFunc {
	logger = logger.WithField("handler", "results_csv")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)

		if !allowMethod(logger, w, r, http.MethodGet) {
			return
		}

		prefix := "email-results"
		write := func(w io.Writer) error {
			return export.WriteResults(w, list.Results())
		}

		if r.URL.Query().Get("valid") == "true" {
			prefix = "valid-emails"
			write = func(w io.Writer) error {
				return export.WriteValidEmails(w, list.Valid(), nil)
			}
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(prefix, now())+`"`)

		if err := write(w); err != nil {
			logger.WithError(err).Error("Failed to write export")
		}
	}
}

func NewHealthHandler(logger logrus.FieldLogger) http.HandlerFunc {
	logger = logger.WithField("handler", "health")
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(logger, r)

		w.Header().Set("content-type", "text/plain")
		w.WriteHeader(http.StatusOK)

		_, err := w.Write([]byte("OK"))
		if err != nil {
			logger.WithError(err).Error("failed to write in health handler")
		}
	}
}
