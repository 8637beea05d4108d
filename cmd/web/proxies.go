package main

import (
	"context"

	"github.com/Rohanpatel16/projectverify/cmd/web/pubsub"
	"github.com/Rohanpatel16/projectverify/cmd/web/resultlist"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp/handlers"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/validation"
	"github.com/sirupsen/logrus"
)

// publisher is satisfied by *gcp.PubSubSvc
type publisher interface {
	Publish(ctx context.Context, data pubsub.Data) error
}

// validationResultListProxy keeps the session's result list up-to-date
func validationResultListProxy(list *resultlist.ResultList, logger logrus.FieldLogger, fn validation.CheckFn) validation.CheckFn {
	logger = logger.WithField("middleware", "result_list")
	return func(ctx context.Context, email string) provider.Result {
		r := fn(ctx, email)

		if err := list.Add(r); err != nil {
			logger.WithFields(logrus.Fields{
				handlers.RequestID.String(): ctx.Value(handlers.RequestID),
				"error":                     err,
				"email":                     r.Email,
			}).Debug("Result list rejected value")
		}

		return r
	}
}

// validationNotifyProxy publishes every result
func validationNotifyProxy(svc publisher, logger logrus.FieldLogger, fn validation.CheckFn) validation.CheckFn {
	logger = logger.WithField("middleware", "notification_publisher")
	return func(ctx context.Context, email string) provider.Result {
		r := fn(ctx, email)

		data := pubsub.Data{
			Result: r,
		}

		if err := svc.Publish(ctx, data); err != nil {
			logger.WithFields(logrus.Fields{
				handlers.RequestID.String(): ctx.Value(handlers.RequestID),
				"error":                     err,
				"email":                     r.Email,
			}).Error("Publishing failed")
		}

		return r
	}
}
