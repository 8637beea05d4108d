package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Rohanpatel16/projectverify/cmd/web/config"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp"
	"github.com/sirupsen/logrus"
)

func headersFromConfig(h config.Headers) http.Header {
	headers := http.Header{}
	for name, value := range h {
		headers.Add(name, value)
	}

	return headers
}

func newLogger(conf config.Config) (*logrus.Logger, error) {
	var err error
	logger := logrus.New()
	logger.Out = os.Stdout

	if conf.Server.Log.Format == config.LFJSON {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{}
	}

	logger.Level, err = logrus.ParseLevel(conf.Server.Log.Level)

	return logger, err
}

func deferClose(toClose io.Closer, log logrus.FieldLogger) {
	if toClose == nil {
		return
	}

	err := toClose.Close()
	if err != nil {
		if log == nil {
			fmt.Printf("error failed to close handle %s", err)
			return
		}

		log.WithError(err).Error("Failed to close handle")
	}
}

// writeJSONResponse writes the response with the status code, the body is prepared first
func writeJSONResponse(logger logrus.FieldLogger, w http.ResponseWriter, status int, response verifyhttp.Response) {
	response.PrepareResponse()

	b, err := json.Marshal(response)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal the response")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + failedResponseError + `"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(b); err != nil {
		logger.WithError(err).Error("Failed to write response")
	}
}

func writeErrorJSONResponse(logger logrus.FieldLogger, w http.ResponseWriter, status int, message string) {
	writeJSONResponse(logger, w, status, &verifyhttp.ErrorResponse{Error: message})
}

// allowMethod writes a 405 and returns false, unless the request uses one of the methods
func allowMethod(logger logrus.FieldLogger, w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}

	for _, m := range methods {
		w.Header().Add("Allow", m)
	}

	writeErrorJSONResponse(logger, w, http.StatusMethodNotAllowed, "Method not allowed")

	return false
}
