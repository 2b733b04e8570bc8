// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"time"
)

// Routing keys.
const (
	KeyUserRegistered = "user.registered"
	KeyVideoRecorded  = "video.recorded"
)

// UserRegistered is emitted after a new account is stored.
type UserRegistered struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// VideoRecorded is emitted after a video's metadata is committed.
type VideoRecorded struct {
	VideoID    string    `json:"video_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	MediaURL   string    `json:"media_url"`
	SizeBytes  int64     `json:"size_bytes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends an event under a routing key. Callers treat failures as
// non-fatal.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
