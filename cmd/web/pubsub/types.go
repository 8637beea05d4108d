package pubsub

import "github.com/Rohanpatel16/projectverify/provider"

type Notification struct {
	SenderID string `json:"sid"`
	Data     Data   `json:"data"`
}

// Data is the payload of a single validation
type Data struct {
	Result provider.Result `json:"r"`
}
