// Package messaging is a small broker-neutral publish/subscribe layer.
//
// Drivers: NATS (queue subscriptions), NSQ (channels), Kafka (consumer groups),
// Google Pub/Sub (subscriptions) and an in-process memory broker. A single
// WithGroup option maps onto each broker's load-balancing unit.
//
// Handlers receive a *Delivery. When a handler returns nil the delivery is
// acked, otherwise it is nacked, unless the handler settled it itself.
package messaging
