package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/dbx"
	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/dmitrijs2005/clipshare/internal/server/cache"
	"github.com/dmitrijs2005/clipshare/internal/server/config"
	"github.com/dmitrijs2005/clipshare/internal/server/events"
	"github.com/dmitrijs2005/clipshare/internal/server/mediahost"
	"github.com/dmitrijs2005/clipshare/internal/server/metrics"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100

	// PlaybackURLTTL is the lifetime of presigned playback URLs.
	PlaybackURLTTL = 15 * time.Minute

	maxTitleLen       = 200
	maxDescriptionLen = 5000

	scopeAll = "all"
)

const (
	MsgVideoNotFound    = "video not found"
	MsgMediaHostTimeout = "media host timed out"
)

// MediaHost stores video files.
type MediaHost interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Page selects a window of a listing. Zero Limit means DefaultPageLimit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() (Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return p, validationError("limit and offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p, nil
}

// VideoService proxies uploads to the media host and keeps video metadata.
type VideoService struct {
	repomanager   repomanager.RepositoryManager
	media         MediaHost
	uploadTimeout time.Duration
	cache         cache.ListingCache
	publisher     events.Publisher
	metrics       *metrics.Metrics
	logger        logging.Logger
	now           func() time.Time
}

func NewVideoService(m repomanager.RepositoryManager, media MediaHost, cfg *config.Config,
	logger logging.Logger, opts ...Option) *VideoService {
	o := buildOptions(opts)
	return &VideoService{
		repomanager:   m,
		media:         media,
		uploadTimeout: cfg.UploadTimeout,
		cache:         o.cache,
		publisher:     o.publisher,
		metrics:       o.metrics,
		logger:        logger.With("module", "videos"),
		now:           time.Now,
	}
}

func (s *VideoService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func normalizeMetadata(meta models.VideoMetadata) (models.VideoMetadata, error) {
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	meta.ContentType = strings.TrimSpace(meta.ContentType)

	if meta.Title == "" {
		return meta, validationError("title is required")
	}
	if utf8.RuneCountInString(meta.Title) > maxTitleLen {
		return meta, validationError("title is too long")
	}
	if utf8.RuneCountInString(meta.Description) > maxDescriptionLen {
		return meta, validationError("description is too long")
	}
	if meta.SizeBytes <= 0 {
		return meta, validationError("file is empty")
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	} else if !strings.HasPrefix(meta.ContentType, "video/") {
		return meta, validationError("file must be a video")
	}
	return meta, nil
}

// Upload stores file on the media host under a fresh key and records it.
// The media host call is bounded by the configured upload timeout. When the
// record cannot be written the stored object is removed again.
func (s *VideoService) Upload(ctx context.Context, ownerID string, file io.ReadSeeker, meta models.VideoMetadata) (*models.Video, error) {
	meta, err := normalizeMetadata(meta)
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return nil, s.internal(ctx, "owner lookup failed", err)
	}

	key := mediahost.StorageKey(ownerID, s.now())

	upCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	mediaURL, err := s.media.Put(upCtx, key, file, meta.SizeBytes, meta.ContentType)
	timedOut := errors.Is(upCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		s.metrics.RecordUpload(metrics.ResultError, 0)
		if timedOut || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error(ctx, "media upload timed out", "key", key, "timeout", s.uploadTimeout)
			return nil, common.NewError(common.ErrorInternal, MsgMediaHostTimeout)
		}
		return nil, s.internal(ctx, "media upload failed", err)
	}

	video, err := s.RecordVideo(ctx, ownerID, mediaURL, key, meta)
	if err != nil {
		s.metrics.RecordUpload(metrics.ResultError, 0)
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.uploadTimeout)
		defer cancel()
		if delErr := s.media.Delete(delCtx, key); delErr != nil {
			s.logger.Warn(ctx, "orphaned media object", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.metrics.RecordUpload(metrics.ResultSuccess, video.SizeBytes)
	return video, nil
}

// RecordVideo persists metadata of an already stored file and bumps the
// owner's video count in the same transaction.
func (s *VideoService) RecordVideo(ctx context.Context, ownerID, mediaURL, mediaRef string, meta models.VideoMetadata) (*models.Video, error) {
	meta, err := normalizeMetadata(meta)
	if err != nil {
		return nil, err
	}
	if mediaURL == "" || mediaRef == "" {
		return nil, validationError("media reference is required")
	}

	video := &models.Video{
		OwnerID:     ownerID,
		Title:       meta.Title,
		Description: meta.Description,
		MediaURL:    mediaURL,
		MediaRef:    mediaRef,
		ContentType: meta.ContentType,
		SizeBytes:   meta.SizeBytes,
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Videos(tx).Create(ctx, video); err != nil {
			return err
		}
		return s.repomanager.Users(tx).IncrementVideoCount(ctx, ownerID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return nil, s.internal(ctx, "video insert failed", err)
	}

	s.cache.Invalidate(ctx, scopeAll, ownerScope(ownerID))

	s.logger.Info(ctx, "video recorded", "video_id", video.ID, "owner_id", ownerID)

	ev := events.VideoRecorded{
		VideoID:    video.ID,
		OwnerID:    video.OwnerID,
		Title:      video.Title,
		MediaURL:   video.MediaURL,
		SizeBytes:  video.SizeBytes,
		OccurredAt: video.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, events.KeyVideoRecorded, ev); err != nil {
		s.logger.Warn(ctx, "event publish failed", "key", events.KeyVideoRecorded, "error", err)
		s.metrics.RecordEvent(events.KeyVideoRecorded, metrics.ResultError)
	} else {
		s.metrics.RecordEvent(events.KeyVideoRecorded, metrics.ResultSuccess)
	}

	return video, nil
}

// ListAll returns videos of every user, newest first.
func (s *VideoService) ListAll(ctx context.Context, page Page) ([]models.Video, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	return s.cachedList(ctx, scopeAll, page, func() ([]models.Video, error) {
		return s.repomanager.Videos(s.repomanager.DB()).ListAll(ctx, page.Limit, page.Offset)
	})
}

// ListByOwner returns videos uploaded by ownerID, newest first.
func (s *VideoService) ListByOwner(ctx context.Context, ownerID string, page Page) ([]models.Video, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	ownerID, ok := canonicalID(ownerID)
	if !ok {
		return nil, validationError("invalid user id")
	}
	return s.cachedList(ctx, ownerScope(ownerID), page, func() ([]models.Video, error) {
		return s.repomanager.Videos(s.repomanager.DB()).ListByOwner(ctx, ownerID, page.Limit, page.Offset)
	})
}

func (s *VideoService) cachedList(ctx context.Context, scope string, page Page, load func() ([]models.Video, error)) ([]models.Video, error) {
	version, cacheable := s.cache.Version(ctx, scope)
	field := fmt.Sprintf("%s/%d:%d", version, page.Limit, page.Offset)

	if cacheable {
		if b, ok := s.cache.Get(ctx, scope, field); ok {
			var cached []models.Video
			if err := json.Unmarshal(b, &cached); err == nil {
				s.metrics.RecordCache(true)
				return cached, nil
			}
		}
	}
	s.metrics.RecordCache(false)

	list, err := load()
	if err != nil {
		return nil, s.internal(ctx, "video list failed", err)
	}

	if cacheable {
		if b, err := json.Marshal(list); err == nil {
			s.cache.Set(ctx, scope, field, b)
		}
	}

	return list, nil
}

// Get returns the video and a presigned playback URL for it. When signing
// fails the stored media URL is returned instead.
func (s *VideoService) Get(ctx context.Context, id string) (*models.Video, string, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, "", common.NewError(common.ErrorNotFound, MsgVideoNotFound)
	}

	video, err := s.repomanager.Videos(s.repomanager.DB()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.NewError(common.ErrorNotFound, MsgVideoNotFound)
		}
		return nil, "", s.internal(ctx, "video lookup failed", err)
	}

	playbackURL, err := s.media.PresignGet(ctx, video.MediaRef, PlaybackURLTTL)
	if err != nil {
		s.logger.Warn(ctx, "presign failed", "video_id", id, "error", err)
		playbackURL = video.MediaURL
	}

	return video, playbackURL, nil
}

// canonicalID accepts only the 36-character hyphenated UUID form and
// returns it lower-cased. uuid.Parse also takes urn and braced forms,
// which the database rejects.
func canonicalID(id string) (string, bool) {
	if len(id) != 36 {
		return "", false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func ownerScope(ownerID string) string {
	return "owner:" + ownerID
}
