package handlers

import "net/http"

// WithHeaders adds the static headers to every response, handlers can still override them
func WithHeaders(headers http.Header) Middleware {
	if len(headers) == 0 {
		return func(handler http.Handler) http.Handler {
			return handler
		}
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addHeaders(w.Header(), headers)

			handler.ServeHTTP(w, r)
		})
	}
}

// addHeaders copies every non-empty value of src to dst
func addHeaders(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			if value == "" {
				continue
			}

			dst.Add(name, value)
		}
	}
}
