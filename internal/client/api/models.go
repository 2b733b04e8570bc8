package api

import (
	"io"
	"time"
)

type User struct {
	ID             string    `json:"id"`
	UserName       string    `json:"username"`
	Email          string    `json:"email"`
	VideoCount     int64     `json:"video_count"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MediaURL    string    `json:"media_url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	PlaybackURL string    `json:"playback_url,omitempty"`
}

// UploadRequest describes a file to upload. ContentType defaults to the
// type registered for the file name's extension.
type UploadRequest struct {
	FileName    string
	ContentType string
	Title       string
	Description string
	Body        io.Reader
}
