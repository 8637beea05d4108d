package verifyhttp

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Rohanpatel16/projectverify/cmd/web/config"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp/handlers"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

// NewServer wraps mux in the middleware, the first middleware being the outermost, and opens the listener
func NewServer(mux http.Handler, conf config.Config, logger logrus.FieldLogger, logWriter io.Writer, middleware ...handlers.Middleware) (*Server, error) {
	for i := len(middleware) - 1; i >= 0; i-- {
		mux = middleware[i](mux)
	}

	ttl := conf.Server.NetTTL.AsDuration()
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	server := &http.Server{
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       ttl,
		WriteTimeout:      ttl,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 19, // 512 kb
		Handler:           mux,
		Addr:              conf.Server.ListenOn,
		ErrorLog:          log.New(logWriter, "", 0),
	}

	listener, err := net.Listen("tcp", conf.Server.ListenOn)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err,
			"listen_on": conf.Server.ListenOn,
		}).Error("Unable to start listener")

		return nil, err
	}

	if conf.Server.ConnectionLimit > 0 {
		listener = netutil.LimitListener(listener, int(conf.Server.ConnectionLimit))
	}

	return &Server{
		server:   server,
		listener: listener,
		logger:   logger.WithField("svc", "http_server"),
	}, nil
}

type Server struct {
	server   *http.Server
	listener net.Listener
	logger   logrus.FieldLogger
}

// Addr returns the address the listener is bound to
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve blocks until the server is shut down, a graceful shutdown isn't reported as an error
func (s *Server) Serve() error {
	err := s.server.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}

// Shutdown stops accepting connections and waits for active requests, until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("Shutting down")
	return s.server.Shutdown(ctx)
}
