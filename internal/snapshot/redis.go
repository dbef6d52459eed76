// Package snapshot keeps the latest published traffic report per window in
// Redis for dashboards that poll instead of subscribing.
package snapshot

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	keyPrefix       = "traffic:"
	monitorInterval = 10 * time.Second
)

var (
	ErrUnavailable = errors.New("redis unavailable")
	ErrNotFound    = errors.New("snapshot not found")
)

type Store struct {
	client *redis.Client
	ttl    time.Duration

	mu        sync.RWMutex
	available bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New connects to Redis. An unreachable server is not fatal: writes are
// skipped until the background monitor sees it come back.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newStore(ctx, client, ttl)
}

func newStore(ctx context.Context, client *redis.Client, ttl time.Duration) *Store {
	s := &Store{client: client, ttl: ttl, done: make(chan struct{})}
	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorf("redis ping failed: %v", err)
	} else {
		s.available = true
	}
	log.Infof("redis snapshot store initialized (available=%v)", s.available)

	mctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.monitor(mctx)
	return s
}

func Key(window string) string { return keyPrefix + window }

func (s *Store) monitor(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Store) check(ctx context.Context) {
	err := s.client.Ping(ctx).Err()
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil && s.available:
		log.Errorf("redis became unavailable: %v", err)
		s.available = false
	case err == nil && !s.available:
		log.Infof("redis connection restored")
		s.available = true
	}
}

func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Save stores r under its window key, replacing the previous snapshot.
func (s *Store) Save(ctx context.Context, r traffic.Report) error {
	if !s.Available() {
		return ErrUnavailable
	}
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	if err := s.client.Set(ctx, Key(r.Window), b, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", Key(r.Window))
	}
	return nil
}

// Latest returns the most recent snapshot saved for the window token.
func (s *Store) Latest(ctx context.Context, window string) (traffic.Report, error) {
	var r traffic.Report
	if !s.Available() {
		return r, ErrUnavailable
	}
	b, err := s.client.Get(ctx, Key(window)).Bytes()
	if errors.Is(err, redis.Nil) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, errors.Wrapf(err, "redis get %s", Key(window))
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, errors.Wrap(err, "unmarshal report")
	}
	return r, nil
}

func (s *Store) Close() error {
	s.cancel()
	<-s.done
	return s.client.Close()
}
