package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/dmitrijs2005/clipshare/internal/server/events"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/dmitrijs2005/clipshare/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type videoEnv struct {
	svc       *VideoService
	rm        repomanager.RepositoryManager
	media     *fakeMedia
	cache     *mapCache
	publisher *capturePublisher
	ownerID   string
}

func newVideoEnv(t *testing.T, rm repomanager.RepositoryManager) *videoEnv {
	t.Helper()
	if rm == nil {
		rm = repomanager.NewMemoryRepositoryManager()
	}
	users := newUserEnv(t, rm)
	s, err := users.svc.Register(context.Background(), "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	env := &videoEnv{rm: rm, media: newFakeMedia(), cache: newMapCache(), publisher: &capturePublisher{}, ownerID: s.User.ID}
	env.svc = NewVideoService(rm, env.media, testConfig(), logging.Nop{},
		WithCache(env.cache), WithPublisher(env.publisher))
	return env
}

func meta(title string, size int64) models.VideoMetadata {
	return models.VideoMetadata{Title: title, ContentType: "video/mp4", SizeBytes: size}
}

func TestUpload_Success(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	v, err := env.svc.Upload(ctx, env.ownerID, body("data"), models.VideoMetadata{
		Title: " cat ", Description: "a cat", ContentType: "video/mp4", SizeBytes: 4,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "cat", v.Title)
	assert.Equal(t, env.ownerID, v.OwnerID)
	assert.True(t, strings.HasPrefix(v.MediaRef, "users/"+env.ownerID+"/"))
	assert.Equal(t, "https://media.example/"+v.MediaRef, v.MediaURL)
	assert.Equal(t, []byte("data"), env.media.objects[v.MediaRef])

	u, err := env.rm.Users(env.rm.DB()).GetByID(ctx, env.ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.VideoCount)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, events.KeyVideoRecorded, env.publisher.events[0].key)
	assert.Equal(t, v.ID, env.publisher.events[0].event.(events.VideoRecorded).VideoID)

	assert.ElementsMatch(t, []string{scopeAll, ownerScope(env.ownerID)}, env.cache.invalidated)
}

func TestUpload_Validation(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	cases := map[string]models.VideoMetadata{
		"no title":    {Title: "  ", ContentType: "video/mp4", SizeBytes: 1},
		"empty file":  {Title: "t", ContentType: "video/mp4", SizeBytes: 0},
		"not a video": {Title: "t", ContentType: "image/png", SizeBytes: 1},
		"long title":  {Title: strings.Repeat("t", 201), ContentType: "video/mp4", SizeBytes: 1},
		"long descr":  {Title: "t", Description: strings.Repeat("d", 5001), ContentType: "video/mp4", SizeBytes: 1},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.Upload(ctx, env.ownerID, body("x"), m)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
	assert.Zero(t, env.media.count())
}

func TestUpload_UnknownOwner(t *testing.T) {
	env := newVideoEnv(t, nil)

	_, err := env.svc.Upload(context.Background(), uuid.NewString(), body("x"), meta("t", 1))
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, env.media.count())
}

func TestUpload_MediaTimeout(t *testing.T) {
	env := newVideoEnv(t, nil)
	env.svc.uploadTimeout = 20 * time.Millisecond
	env.media.putDelay = time.Second

	_, err := env.svc.Upload(context.Background(), env.ownerID, body("x"), meta("t", 1))
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Equal(t, MsgMediaHostTimeout, err.Error())

	list, err := env.svc.ListAll(context.Background(), Page{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpload_MediaError(t *testing.T) {
	env := newVideoEnv(t, nil)
	env.media.putErr = errors.New("403 forbidden")

	_, err := env.svc.Upload(context.Background(), env.ownerID, body("x"), meta("t", 1))
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "forbidden")
}

func TestUpload_RecordFailureDeletesObject(t *testing.T) {
	rm := newBrokenManager()
	env := newVideoEnv(t, rm)
	rm.txErr = errDB

	_, err := env.svc.Upload(context.Background(), env.ownerID, body("x"), meta("t", 1))
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.Len(t, env.media.deleted, 1)
	assert.Zero(t, env.media.count())
}

func TestRecordVideo_RequiresMediaRef(t *testing.T) {
	env := newVideoEnv(t, nil)

	_, err := env.svc.RecordVideo(context.Background(), env.ownerID, "", "", meta("t", 1))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRecordVideo_PublishFailureIsNotFatal(t *testing.T) {
	env := newVideoEnv(t, nil)
	env.publisher.err = errors.New("broker down")

	_, err := env.svc.RecordVideo(context.Background(), env.ownerID, "https://m/k", "k", meta("t", 1))
	assert.NoError(t, err)
}

func TestListing_NewestFirst(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		v, err := env.svc.RecordVideo(ctx, env.ownerID, "https://m/"+title, title, meta(title, 1))
		require.NoError(t, err)
		ids = append(ids, v.ID)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := env.svc.ListAll(ctx, Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	mine, err := env.svc.ListByOwner(ctx, env.ownerID, Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, ids[2], mine[0].ID)

	others, err := env.svc.ListByOwner(ctx, uuid.NewString(), Page{})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestListing_Pagination(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.ListAll(ctx, Page{Limit: -1})
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = env.svc.ListAll(ctx, Page{Offset: -1})
	assert.ErrorIs(t, err, common.ErrorValidation)

	p, err := Page{Limit: 1000}.normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, p.Limit)

	p, err = Page{}.normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, p.Limit)

	_, err = env.svc.ListByOwner(ctx, "not-a-uuid", Page{})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestListing_CacheHitAndInvalidation(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.RecordVideo(ctx, env.ownerID, "https://m/1", "1", meta("one", 1))
	require.NoError(t, err)

	first, err := env.svc.ListAll(ctx, Page{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := env.svc.ListAll(ctx, Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, env.cache.hits)
	assert.Equal(t, first[0].ID, second[0].ID)

	_, err = env.svc.RecordVideo(ctx, env.ownerID, "https://m/2", "2", meta("two", 1))
	require.NoError(t, err)

	third, err := env.svc.ListAll(ctx, Page{})
	require.NoError(t, err)
	assert.Len(t, third, 2, "write must invalidate cached listing")
}

func TestListing_LoadRacingInvalidationIsNotCached(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.RecordVideo(ctx, env.ownerID, "https://m/1", "1", meta("one", 1))
	require.NoError(t, err)

	// a write lands between the listing read and the cache fill
	stale, err := env.svc.cachedList(ctx, scopeAll, Page{Limit: DefaultPageLimit}, func() ([]models.Video, error) {
		list, err := env.rm.Videos(env.rm.DB()).ListAll(ctx, DefaultPageLimit, 0)
		if err != nil {
			return nil, err
		}
		_, recErr := env.svc.RecordVideo(ctx, env.ownerID, "https://m/2", "2", meta("two", 1))
		require.NoError(t, recErr)
		return list, nil
	})
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	fresh, err := env.svc.ListAll(ctx, Page{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	again, err := env.svc.ListAll(ctx, Page{})
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Equal(t, 1, env.cache.hits)
}

func TestIDForms(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	v, err := env.svc.RecordVideo(ctx, env.ownerID, "https://m/k", "k", meta("t", 1))
	require.NoError(t, err)

	got, _, err := env.svc.Get(ctx, strings.ToUpper(v.ID))
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	list, err := env.svc.ListByOwner(ctx, strings.ToUpper(env.ownerID), Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	for _, id := range []string{"urn:uuid:" + v.ID, "{" + v.ID + "}", strings.ReplaceAll(v.ID, "-", "")} {
		_, _, err = env.svc.Get(ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound, id)
	}
	for _, id := range []string{"urn:uuid:" + env.ownerID, "{" + env.ownerID + "}"} {
		_, err = env.svc.ListByOwner(ctx, id, Page{})
		assert.ErrorIs(t, err, common.ErrorValidation, id)
	}
}

func TestGet(t *testing.T) {
	env := newVideoEnv(t, nil)
	ctx := context.Background()

	v, err := env.svc.RecordVideo(ctx, env.ownerID, "https://m/k", "k", meta("t", 1))
	require.NoError(t, err)

	got, url, err := env.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, "https://signed.example/k?ttl=15m0s", url)

	env.media.presign = errors.New("no creds")
	_, url, err = env.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://m/k", url)

	_, _, err = env.svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, _, err = env.svc.Get(ctx, "bogus")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
