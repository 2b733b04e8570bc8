// Package memory is an in-process implementation of the user and video
// repositories with the same uniqueness and ordering semantics as the
// PostgreSQL ones. It backs local runs (DSN "memory") and service tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/server/models"
	"github.com/google/uuid"
)

// Store holds all records. The zero value is not usable; call NewStore.
type Store struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byName  map[string]string
	byEmail map[string]string
	videos  map[string]models.Video
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]models.User),
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
		videos:  make(map[string]models.Video),
		now:     time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Videos returns the video repository view of the store.
func (s *Store) Videos() *VideoRepository { return &VideoRepository{s: s} }

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if id, ok := r.s.byName[username]; ok {
		u := r.s.users[id]
		return &u, nil
	}
	if id, ok := r.s.byEmail[email]; ok {
		u := r.s.users[id]
		return &u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *UserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	if user.PasswordHash == "" {
		return nil, errors.New("db error: empty password hash")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byName[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.s.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = uuid.NewString()
	user.VideoCount, user.FollowerCount, user.FollowingCount = 0, 0, 0
	user.CreatedAt = r.s.now().UTC()

	r.s.users[user.ID] = *user
	r.s.byName[user.UserName] = user.ID
	r.s.byEmail[user.Email] = user.ID

	return user, nil
}

func (r *UserRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UserRepository) IncrementVideoCount(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.VideoCount++
	r.s.users[id] = u
	return nil
}

type VideoRepository struct {
	s *Store
}

func (r *VideoRepository) Create(_ context.Context, v *models.Video) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[v.OwnerID]; !ok {
		return nil, errors.New("db error: owner does not exist")
	}

	v.ID = uuid.NewString()
	v.CreatedAt = r.s.now().UTC()
	r.s.videos[v.ID] = *v

	return v, nil
}

func (r *VideoRepository) GetByID(_ context.Context, id string) (*models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.videos[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

func (r *VideoRepository) ListAll(_ context.Context, limit, offset int) ([]models.Video, error) {
	return r.list(func(models.Video) bool { return true }, limit, offset), nil
}

func (r *VideoRepository) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]models.Video, error) {
	return r.list(func(v models.Video) bool { return v.OwnerID == ownerID }, limit, offset), nil
}

func (r *VideoRepository) list(match func(models.Video) bool, limit, offset int) []models.Video {
	r.s.mu.RLock()
	all := make([]models.Video, 0, len(r.s.videos))
	for _, v := range r.s.videos {
		if match(v) {
			all = append(all, v)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []models.Video{}
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
