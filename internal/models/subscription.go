package models

import "time"

// Subscription is the in-memory-only record of one live fan-out
// subscriber. It never touches the database; it is created on connect
// and destroyed on disconnect or eviction.
type Subscription struct {
	TenantID         string    `json:"tenant_id"`
	SubscriberID     string    `json:"subscriber_id"`
	DeliveryChannel  string    `json:"delivery_channel"`
	BacklogDepth     int       `json:"backlog_depth"`
	LastDeliveredAt  time.Time `json:"last_delivered_at"`
	DroppedCount     int       `json:"dropped_count"`
}
