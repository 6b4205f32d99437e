// Package redis persists the QRZ session key in Redis so several hunters can
// share one key per day.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements credential.Store using two string keys.
type Store struct {
	client   *goredis.Client
	dateKey  string
	valueKey string
	logger   *slog.Logger
}

// Open connects and pings Redis.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("connected to redis", "addr", opts.Addr)

	return &Store{
		client:   rdb,
		dateKey:  opts.KeyPrefix + "qrz_key_date",
		valueKey: opts.KeyPrefix + "qrz_key_value",
		logger:   logger,
	}, nil
}

// Load reads both keys with one MGET. Missing keys and unreadable dates come
// back as zero fields.
func (s *Store) Load(ctx context.Context) (domain.Credential, error) {
	vals, err := s.client.MGet(ctx, s.dateKey, s.valueKey).Result()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("mget qrz key: %w", err)
	}

	var cred domain.Credential
	if v, ok := vals[1].(string); ok {
		cred.Key = v
	}
	if v, ok := vals[0].(string); ok {
		d, err := domain.ParseDate(v)
		if err != nil {
			s.logger.Warn("ignoring unreadable qrz key date", "value", v, "error", err)
		} else {
			cred.Issued = d
		}
	}
	return cred, nil
}

// Save writes both keys in a MULTI/EXEC transaction.
func (s *Store) Save(ctx context.Context, c domain.Credential) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.MSet(ctx, s.dateKey, c.Issued.String(), s.valueKey, c.Key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save qrz key: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
