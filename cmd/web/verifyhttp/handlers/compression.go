package handlers

import (
	"compress/gzip"
	"net/http"

	"github.com/NYTimes/gziphandler"
)

const (
	mtuSize = 1500
)

// WithGzipHandler compresses responses larger than a single packet
func WithGzipHandler() Middleware {
	wrapper, err := gziphandler.GzipHandlerWithOpts(
		gziphandler.CompressionLevel(gzip.BestSpeed),
		gziphandler.MinSize(mtuSize),
	)

	if err != nil {
		// Only reachable with invalid options
		panic(err)
	}

	return func(handler http.Handler) http.Handler {
		return wrapper(handler)
	}
}
