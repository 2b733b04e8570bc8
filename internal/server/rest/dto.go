package rest

import (
	"time"

	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/dmitrijs2005/clipshare/internal/server/services"
)

type registerRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

// userResponse is the public view of a user. It has no password hash field.
type userResponse struct {
	ID             string    `json:"id"`
	UserName       string    `json:"username"`
	Email          string    `json:"email"`
	VideoCount     int64     `json:"video_count"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type videoResponse struct {
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

type videoListResponse struct {
	Videos []videoResponse `json:"videos"`
}

func toUser(u *models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		UserName:       u.UserName,
		Email:          u.Email,
		VideoCount:     u.VideoCount,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
	}
}

func toSession(s *services.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: toUser(s.User)}
}

func toVideo(v *models.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		OwnerID:     v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		MediaURL:    v.MediaURL,
		ContentType: v.ContentType,
		SizeBytes:   v.SizeBytes,
		CreatedAt:   v.CreatedAt,
	}
}

func toVideoList(list []models.Video) videoListResponse {
	out := videoListResponse{Videos: make([]videoResponse, 0, len(list))}
	for i := range list {
		out.Videos = append(out.Videos, toVideo(&list[i]))
	}
	return out
}
