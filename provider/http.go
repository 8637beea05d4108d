package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxResponseBytes = 1 << 20
)

// Doer is satisfied by *http.Client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// fetch performs the request and returns the body of a 2xx response
func fetch(client Doer, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	return body, nil
}

func fetchJSON(client Doer, req *http.Request, v interface{}) error {
	body, err := fetch(client, req)
	if err != nil {
		return err
	}

	return decodeJSON(body, v)
}

func decodeJSON(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w %s", ErrMalformedResponse, err)
	}

	return nil
}

// numberEquals reports whether raw holds a JSON number equal to expect. Strings, booleans and null never match.
func numberEquals(raw json.RawMessage, expect int64) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || raw[0] == '"' {
		return false
	}

	f, ok := new(big.Float).SetString(n.String())
	if !ok {
		return false
	}

	return f.Cmp(new(big.Float).SetInt64(expect)) == 0
}

func scoreFrom(cond bool, yes, no int) *int {
	if cond {
		return Int(yes)
	}

	return Int(no)
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
