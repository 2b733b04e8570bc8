package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Users()

	u, err := r.Create(ctx, &models.User{UserName: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := r.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	got, err = r.FindByUsernameOrEmail(ctx, "other", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.FindByUsernameOrEmail(ctx, "bob", "b@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.GetUserByLogin(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Users()

	_, err := r.Create(ctx, &models.User{UserName: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = r.Create(ctx, &models.User{UserName: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = r.Create(ctx, &models.User{UserName: "bob", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = r.Create(ctx, &models.User{UserName: "carol", Email: "c@x.com"})
	assert.Error(t, err)
}

func TestUserRepository_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Users()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Create(ctx, &models.User{UserName: "dup", Email: "dup@x.com", PasswordHash: "h"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, common.ErrorAlreadyExists)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestUserRepository_IncrementVideoCount(t *testing.T) {
	ctx := context.Background()
	r := NewStore().Users()

	u, err := r.Create(ctx, &models.User{UserName: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, r.IncrementVideoCount(ctx, u.ID))
	require.NoError(t, r.IncrementVideoCount(ctx, u.ID))
	assert.ErrorIs(t, r.IncrementVideoCount(ctx, "ghost"), common.ErrorNotFound)

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.VideoCount)
}

func TestVideoRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	alice, err := s.Users().Create(ctx, &models.User{UserName: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := s.Users().Create(ctx, &models.User{UserName: "bob", Email: "b@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	vr := s.Videos()
	v1, err := vr.Create(ctx, &models.Video{OwnerID: alice.ID, Title: "one", SizeBytes: 1})
	require.NoError(t, err)
	v2, err := vr.Create(ctx, &models.Video{OwnerID: bob.ID, Title: "two", SizeBytes: 1})
	require.NoError(t, err)
	v3, err := vr.Create(ctx, &models.Video{OwnerID: alice.ID, Title: "three", SizeBytes: 1})
	require.NoError(t, err)

	all, err := vr.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{v3.ID, v2.ID, v1.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	page, err := vr.ListAll(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, v2.ID, page[0].ID)

	empty, err := vr.ListAll(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	mine, err := vr.ListByOwner(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, v3.ID, mine[0].ID)
	assert.Equal(t, v1.ID, mine[1].ID)

	got, err := vr.GetByID(ctx, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Title)

	_, err = vr.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVideoRepository_OwnerMustExist(t *testing.T) {
	_, err := NewStore().Videos().Create(context.Background(), &models.Video{OwnerID: "ghost", Title: "x", SizeBytes: 1})
	assert.Error(t, err)
}
