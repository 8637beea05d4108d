package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"hash"
	"net/http"
	"os"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	"github.com/Rohanpatel16/projectverify/cmd/web/config"
	"github.com/Rohanpatel16/projectverify/cmd/web/pubsub"
	"github.com/Rohanpatel16/projectverify/cmd/web/pubsub/gcp"
	"github.com/Rohanpatel16/projectverify/cmd/web/resultlist"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp/handlers"
	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/runtimer"
	"github.com/Rohanpatel16/projectverify/settings"
	"github.com/Rohanpatel16/projectverify/validation"
	"github.com/graphql-go/handler"
	"github.com/juju/ratelimit"
	"github.com/minio/highwayhash"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Version contains the app version, the value is changed during compile time to the appropriate Git tag
var Version = "dev"

const hashKeyLength = 32

func main() {
	configFile := flag.String("config", "config.toml", "The TOML configuration file")
	flag.Parse()

	conf, err := config.NewConfig(*configFile)
	if err != nil {
		fmt.Printf("Unable to load config %s\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(conf)
	if err != nil {
		fmt.Printf("Unable to set up logger %s\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"version": Version,
		"config":  *configFile,
	}).Info("Starting up...")

	if err := run(conf, logger); err != nil {
		logger.WithError(err).Error("Stopped")
		os.Exit(1)
	}

	logger.Info("Stopped")
}

func run(conf config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providerOptions, err := conf.ProviderOptions()
	if err != nil {
		return err
	}

	registry := provider.NewDefaultRegistry(providerOptions...)

	store, err := settings.Open(conf.Validation.SettingsStore.Kind(), conf.SettingsLocation(), logger)
	if err != nil {
		return fmt.Errorf("unable to open the settings store %w", err)
	}

	defer deferClose(store, logger)

	h, err := newHash(conf.Server.Hash.Key, logger)
	if err != nil {
		return err
	}

	list := resultlist.New(h, conf.Validation.SessionTTL.AsDuration())

	middleware := []validation.Middleware{
		func(fn validation.CheckFn) validation.CheckFn {
			return validationResultListProxy(list, logger, fn)
		},
	}

	if conf.PubSub.Enabled {
		ps, err := newPubSub(ctx, conf, logger)
		if err != nil {
			return err
		}

		defer deferClose(ps, logger)

		middleware = append(middleware, func(fn validation.CheckFn) validation.CheckFn {
			return validationNotifyProxy(ps, logger, fn)
		})

		err = ps.Listen(ctx, func(_ context.Context, n pubsub.Notification) {
			if err := list.Add(n.Data.Result); err != nil {
				logger.WithError(err).Debug("Result list rejected a notification")
			}
		})

		if err != nil {
			return err
		}
	}

	svc := validation.New(ctx, registry, store,
		validation.WithLogger(logger),
		validation.WithBatchDelay(conf.Validation.BatchDelay.AsDuration()),
		validation.WithMiddleware(middleware...),
	)

	comparer := compare.New(registry,
		compare.WithLogger(logger),
		compare.WithLimit(conf.Compare.Limit),
		compare.WithTimeout(conf.Compare.Timeout.AsDuration()),
		compare.WithDelay(conf.Compare.Delay.AsDuration()),
	)

	gen := permutation.New()

	schema, err := NewGraphQLSchema(svc, gen, list)
	if err != nil {
		return fmt.Errorf("unable to build the GraphQL schema %w", err)
	}

	maxBody := conf.Server.InputLengthMax

	mux := http.NewServeMux()
	mux.HandleFunc("/health", NewHealthHandler(logger))
	mux.HandleFunc("/validate", NewValidateHandler(logger, svc, maxBody))
	mux.HandleFunc("/validate/bulk", NewBulkHandler(logger, svc, maxBody))
	mux.HandleFunc("/generate", NewGenerateHandler(logger, gen, svc, maxBody))
	mux.HandleFunc("/csv/generate", NewCSVGenerateHandler(logger, gen, maxBody))
	mux.HandleFunc("/compare", NewCompareHandler(logger, comparer, maxBody))
	mux.HandleFunc("/settings", NewSettingsHandler(logger, svc, maxBody))
	mux.HandleFunc("/results", NewResultsHandler(logger, list))
	mux.HandleFunc("/results.csv", NewResultsCSVHandler(logger, list, time.Now))
	mux.Handle("/graphql", handler.New(&handler.Config{
		Schema:     &schema,
		Pretty:     conf.Server.GraphQL.PrettyOutput,
		GraphiQL:   conf.Server.GraphQL.GraphiQL,
		Playground: conf.Server.GraphQL.Playground,
	}))

	var bucket handlers.TakeMaxDuration
	if conf.Server.RateLimiter.Rate > 0 {
		capacity := int64(conf.Server.RateLimiter.Capacity)
		if capacity < 1 {
			capacity = int64(conf.Server.RateLimiter.Rate)
		}

		bucket = ratelimit.NewBucketWithRate(float64(conf.Server.RateLimiter.Rate), capacity)
	}

	lw := logger.WriterLevel(logger.Level)
	defer deferClose(lw, nil)

	mw := []handlers.Middleware{
		handlers.WithDeadlineControl(),
		handlers.WithRequestLogger(logger),
		handlers.WithCORS(logger, conf.Server.CORS.AllowedOrigins, conf.Server.CORS.AllowedHeaders),
		handlers.WithRateLimiter(logger, bucket, conf.Server.RateLimiter.ParkedTTL.AsDuration()),
	}

	if conf.Server.PathStrip != "" {
		mw = append(mw, handlers.WithPathStrip(logger, conf.Server.PathStrip))
	}

	mw = append(mw,
		handlers.WithHeaders(headersFromConfig(conf.Server.Headers)),
		handlers.WithGzipHandler(),
	)

	server, err := verifyhttp.NewServer(mux, conf, logger, lw, mw...)
	if err != nil {
		return err
	}

	sh := runtimer.New(2, os.Interrupt, syscall.SIGTERM)
	defer sh.Stop()

	sh.RegisterCallback(func(s os.Signal, n int) {
		log := logger.WithField("signal", s.String())
		if n > 1 {
			log.Warn("Received a second signal, exiting")
			os.Exit(1)
		}

		log.Info("Shutting down, signal again to force")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.Server.NetTTL.AsDuration())
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}

		cancel()
	})

	logger.WithFields(logrus.Fields{
		"listen_on": server.Addr().String(),
		"provider":  svc.Provider(),
		"store":     conf.Validation.SettingsStore,
	}).Info("Done, serving requests")

	return server.Serve()
}

// newHash returns the keyed hash for the result list, an empty key is replaced with a random one
func newHash(key string, logger logrus.FieldLogger) (hash.Hash, error) {
	k := []byte(key)
	if len(k) == 0 {
		logger.Warn("No hash key configured, using a random key")

		k = make([]byte, hashKeyLength)
		if _, err := rand.Read(k); err != nil {
			return nil, err
		}
	}

	if len(k) != hashKeyLength {
		return nil, fmt.Errorf("the hash key must be %d bytes, got %d", hashKeyLength, len(k))
	}

	return highwayhash.New128(k)
}

func newPubSub(ctx context.Context, conf config.Config, logger logrus.FieldLogger) (*gcp.PubSubSvc, error) {
	if conf.PubSub.ProjectID == "" || conf.PubSub.Topic == "" {
		return nil, errors.New("pub/sub requires a project ID and a topic")
	}

	var opts []option.ClientOption
	if conf.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.PubSub.CredentialsFile))
	}

	if conf.PubSub.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(conf.PubSub.Endpoint))
	}

	client, err := gcppubsub.NewClient(ctx, conf.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create the pub/sub client %w", err)
	}

	return gcp.NewPubSubSvc(logger, client, conf.PubSub.Topic,
		gcp.WithSubscriptionLabels(conf.PubSub.Labels),
		gcp.WithSubscriptionConcurrencyCount(conf.PubSub.Concurrency),
	), nil
}
