package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"license-server/internal/data/entity"
	"license-server/pkg/objectstore"
	"license-server/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const userKeyPrefix = "users/"

// loadConcurrency bounds parallel Gets while loading the directory.
const loadConcurrency = 8

type UserRepository interface {
	Load(ctx context.Context) (int, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Count(ctx context.Context) int
}

type userRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
	store objectstore.Store
	log   *zap.Logger
}

func NewUserRepository(store objectstore.Store, log *zap.Logger) UserRepository {
	return &userRepository{
		users: make(map[string]entity.User),
		store: store,
		log:   log.With(zap.String("repository", "user")),
	}
}

func userKey(email string) string {
	return userKeyPrefix + utils.MD5Hex(email)
}

// Load replaces the cache with every users/ object in the store.
// Objects that cannot be read or decoded are skipped.
func (r *userRepository) Load(ctx context.Context) (int, error) {
	keys, err := r.store.ListKeys(ctx, userKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var mu sync.Mutex
	loaded := make(map[string]entity.User, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			data, err := r.store.Get(gctx, key)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.log.Warn("Skipping unreadable user object", zap.String("key", key), zap.Error(err))
				return nil
			}

			var user entity.User
			if err := json.Unmarshal(data, &user); err != nil || user.Email == "" {
				r.log.Warn("Skipping malformed user object", zap.String("key", key), zap.Error(err))
				return nil
			}

			mu.Lock()
			loaded[user.Email] = user
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}

	r.mu.Lock()
	r.users = loaded
	r.mu.Unlock()

	return len(loaded), nil
}

// FindByEmail returns nil, nil when the email is unknown.
func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Create persists the record first and only then makes it visible in the cache.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.Email, err)
	}

	if err := r.store.Put(ctx, userKey(user.Email), data); err != nil {
		r.log.Error("Failed to persist user",
			zap.Error(err),
			zap.String("email", user.Email),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	r.mu.Lock()
	r.users[user.Email] = *user
	r.mu.Unlock()

	return nil
}

func (r *userRepository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

