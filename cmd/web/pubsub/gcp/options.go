package gcp

type Option func(svc *PubSubSvc)

// WithSubscriptionLabels sets the labels that make up this instance's subscription ID, e.g. the host name
func WithSubscriptionLabels(labels []string) Option {
	return func(svc *PubSubSvc) {
		svc.subscriptionLabels = append([]string(nil), labels...)
	}
}

// WithSubscriptionConcurrencyCount limits the number of notifications handled at the same time, values below 1 keep
// the client library's default
func WithSubscriptionConcurrencyCount(c int) Option {
	return func(svc *PubSubSvc) {
		if c > 0 {
			svc.subscriptionNumProcs = c
		}
	}
}
