package models

import "time"

// Video is the metadata record of an uploaded clip. MediaRef is the object
// key on the media host, MediaURL the address the host reported for it.
type Video struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	MediaURL    string
	MediaRef    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// VideoMetadata is the client-supplied part of an upload.
type VideoMetadata struct {
	Title       string
	Description string
	ContentType string
	SizeBytes   int64
}
