package signalserver

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Presence stores who is online. The hub announces List as the user-list.
type Presence interface {
	Join(ctx context.Context, user payload.User) error
	Leave(ctx context.Context, id string) error
	List(ctx context.Context) ([]payload.User, error)
}

type MemoryPresence struct {
	mu    sync.RWMutex
	users []payload.User
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{}
}

func (p *MemoryPresence) Join(_ context.Context, user payload.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.users = lo.Filter(p.users, func(u payload.User, _ int) bool { return u.ID != user.ID })
	p.users = append(p.users, user)
	return nil
}

func (p *MemoryPresence) Leave(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.users = lo.Filter(p.users, func(u payload.User, _ int) bool { return u.ID != id })
	return nil
}

func (p *MemoryPresence) List(_ context.Context) ([]payload.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.users), nil
}

// RedisPresence keeps the online users in a hash so several server
// instances can share one user list.
type RedisPresence struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

func NewRedisPresence(ctx context.Context, cfg RedisConfig) (*RedisPresence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "teamcall:presence"
	}

	return &RedisPresence{client: client, key: key, ttl: cfg.TTL}, nil
}

func (p *RedisPresence) Join(ctx context.Context, user payload.User) error {
	if err := p.client.HSet(ctx, p.key, user.ID, user.Username).Err(); err != nil {
		return fmt.Errorf("failed to store presence: %w", err)
	}
	if p.ttl > 0 {
		if err := p.client.Expire(ctx, p.key, p.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh presence ttl: %w", err)
		}
	}
	return nil
}

func (p *RedisPresence) Leave(ctx context.Context, id string) error {
	if err := p.client.HDel(ctx, p.key, id).Err(); err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}
	return nil
}

func (p *RedisPresence) List(ctx context.Context) ([]payload.User, error) {
	entries, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	users := lo.MapToSlice(entries, func(id, username string) payload.User {
		return payload.User{ID: id, Username: username}
	})
	slices.SortFunc(users, func(a, b payload.User) int {
		return strings.Compare(a.ID, b.ID)
	})
	return users, nil
}

func (p *RedisPresence) Close() error {
	return p.client.Close()
}
