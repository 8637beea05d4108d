package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	"github.com/Rohanpatel16/projectverify/cmd/web/pubsub"
	"github.com/Rohanpatel16/projectverify/cmd/web/verifyhttp/handlers"
	"github.com/sirupsen/logrus"
)

const (
	subscriptionPrefix = "verify"
	maxReceiveRetries  = 100
)

var (
	ErrTopicNotFound       = errors.New("topic not found")
	ErrNoClient            = errors.New("client not defined")
	ErrInvalidSubscription = errors.New("invalid subscription")
)

// NewPubSubSvc publishes validation results to topicName. Every instance gets its own subscription, named after
// the labels, so that it can ignore its own notifications.
func NewPubSubSvc(logger logrus.FieldLogger, client *gcppubsub.Client, topicName string, options ...Option) *PubSubSvc {
	if logger == nil {
		logger = logrus.New()
	}

	svc := &PubSubSvc{
		logger:    logger.WithField("svc", "pubsub"),
		client:    client,
		topicName: topicName,
	}

	for _, o := range options {
		o(svc)
	}

	labels := make([]string, 0, len(svc.subscriptionLabels))
	for _, l := range svc.subscriptionLabels {
		if l != "" {
			labels = append(labels, l)
		}
	}

	svc.subscriptionLabels = labels

	return svc
}

// NotifyFn is called for every notification published by another instance
type NotifyFn func(ctx context.Context, notification pubsub.Notification)

type PubSubSvc struct {
	logger               logrus.FieldLogger
	client               *gcppubsub.Client
	topicName            string
	subscriptionLabels   []string
	subscriptionNumProcs int

	topicLock sync.Mutex
	topic     *gcppubsub.Topic
}

// Publish sends data to the topic and waits for the server to acknowledge it
func (svc *PubSubSvc) Publish(ctx context.Context, data pubsub.Data) error {
	logger := svc.logger.WithField(handlers.RequestID.String(), ctx.Value(handlers.RequestID))

	notification := pubsub.Notification{
		SenderID: svc.getSubscriptionID(),
		Data:     data,
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":        err,
			"notification": notification,
		}).Error("Failed to marshal notification")
		return err
	}

	topic, err := svc.getTopic(ctx)
	if err != nil {
		return err
	}

	_, err = topic.Publish(ctx, &gcppubsub.Message{Data: payload}).Get(ctx)

	return err
}

// Listen attaches this instance's subscription to the topic and calls fn for notifications of other instances.
// Listen returns immediately, receiving stops when ctx is canceled.
func (svc *PubSubSvc) Listen(ctx context.Context, fn NotifyFn) error {
	topic, err := svc.getTopic(ctx)
	if err != nil {
		svc.logger.WithFields(logrus.Fields{
			"error": err,
			"topic": svc.topicName,
		}).Error("Topic not found for this project")
		return err
	}

	go svc.maintainSubscription(ctx, fn, topic)

	return nil
}

// Close deletes this instance's subscription, flushes pending messages and closes the client
func (svc *PubSubSvc) Close() error {
	if svc.client == nil {
		return ErrNoClient
	}

	sub := svc.client.Subscription(svc.getSubscriptionID())
	if exists, _ := sub.Exists(context.Background()); exists {
		if err := sub.Delete(context.Background()); err != nil {
			svc.logger.WithError(err).Warn("Failed to cleanup subscription")
		}
	}

	svc.topicLock.Lock()
	if svc.topic != nil {
		svc.topic.Stop()
	}
	svc.topicLock.Unlock()

	err := svc.client.Close()
	if err != nil {
		svc.logger.WithError(err).Warn("Failed to close pub/sub client")
	}

	return err
}

func (svc *PubSubSvc) getSubscriptionID() string {
	return strings.Join(append([]string{subscriptionPrefix}, svc.subscriptionLabels...), `-`)
}

// getTopic returns the topic, after verifying it exists. Multiple calls to getTopic will return the same topic
func (svc *PubSubSvc) getTopic(ctx context.Context) (*gcppubsub.Topic, error) {
	if svc.client == nil {
		return nil, ErrNoClient
	}

	svc.topicLock.Lock()
	defer svc.topicLock.Unlock()

	if svc.topic != nil {
		return svc.topic, nil
	}

	topic := svc.client.Topic(svc.topicName)
	ok, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrTopicNotFound, svc.topicName)
	}

	svc.topic = topic

	return svc.topic, nil
}

// maintainSubscription keeps a receiver running until ctx is done, recreating the subscription when it disappears
func (svc *PubSubSvc) maintainSubscription(ctx context.Context, fn NotifyFn, topic *gcppubsub.Topic) {
	subscriptionID := svc.getSubscriptionID()

	for attempt := 1; attempt <= maxReceiveRetries; attempt++ {
		logger := svc.logger.WithFields(logrus.Fields{
			"attempt":         attempt,
			"subscription_id": subscriptionID,
		})

		if ctx.Err() != nil {
			logger.WithField("ctx_err", ctx.Err()).Debug("Context canceled, stopping receiver")
			return
		}

		sub, err := svc.subscription(ctx, topic, subscriptionID)
		if err != nil {
			logger.WithError(err).Error("Failed to setup subscription for this project")
			svc.backoff(ctx, attempt)
			continue
		}

		sub.ReceiveSettings.NumGoroutines = svc.subscriptionNumProcs

		err = svc.listen(ctx, sub, fn)
		if err == nil || ctx.Err() != nil {
			return
		}

		logger.WithError(err).Error("Error with pub/sub receivers")
		svc.backoff(ctx, attempt)
	}

	svc.logger.Warn("Giving up on receiving notifications")
}

// subscription creates the subscription, or references the existing one
func (svc *PubSubSvc) subscription(ctx context.Context, topic *gcppubsub.Topic, id string) (*gcppubsub.Subscription, error) {
	sub := svc.client.Subscription(id)
	if exists, err := sub.Exists(ctx); err == nil && exists {
		return sub, nil
	}

	return svc.client.CreateSubscription(ctx, id, gcppubsub.SubscriptionConfig{
		Topic:            topic,
		AckDeadline:      time.Minute,
		ExpirationPolicy: 25 * time.Hour,
	})
}

// listen blocks while receiving notifications on subscription
func (svc *PubSubSvc) listen(ctx context.Context, subscription Subscription, fn NotifyFn) error {
	if subscription == nil {
		return ErrInvalidSubscription
	}

	svc.logger.WithField("subscription", subscription.String()).Info("Starting receiver on subscription")

	var received, ignored uint64
	return subscription.Receive(ctx, func(ctx context.Context, message *gcppubsub.Message) {
		logger := svc.logger.WithFields(logrus.Fields{
			"msg_id":             message.ID,
			"notifications_seen": atomic.AddUint64(&received, 1),
		})

		notification, ok := svc.decode(logger, message.Data)
		if !ok {
			message.Nack()
			return
		}

		message.Ack()

		// Making sure we don't respond to our own publishing
		if notification.SenderID == svc.getSubscriptionID() {
			logger.WithField("notifications_ignored", atomic.AddUint64(&ignored, 1)).Debug("Ignoring notification sent by this instance")
			return
		}

		fn(ctx, notification)
	})
}

func (svc *PubSubSvc) decode(logger logrus.FieldLogger, data []byte) (pubsub.Notification, bool) {
	var notification pubsub.Notification

	if err := json.Unmarshal(data, &notification); err != nil {
		logger.WithFields(logrus.Fields{
			"error": err,
			"data":  string(data),
		}).Warn("Unable to unmarshal notification")

		return notification, false
	}

	return notification, true
}

func (svc *PubSubSvc) backoff(ctx context.Context, attempt int) {
	t := time.NewTimer(getDurationToSleep(attempt))
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// getDurationToSleep grows linearly with the attempts, capped at a minute
func getDurationToSleep(attempt int) time.Duration {
	d := time.Duration(attempt) * 2 * time.Second
	if d > time.Minute {
		return time.Minute
	}

	return d
}
