package store

import (
	"context"
	"fmt"
	"strings"

	"ncs-birthday-mailer/domain/delivery"

	"github.com/redis/go-redis/v9"
)

// SendLogRedis keeps one set per day under prefix:sent:<date> and an index
// set of days under prefix:sent:dates.
type SendLogRedis struct {
	client *redis.Client
	prefix string
}

// NewSendLogRedis creates a store using client. An empty prefix defaults to
// "birthday".
func NewSendLogRedis(client *redis.Client, prefix string) *SendLogRedis {
	if prefix == "" {
		prefix = "birthday"
	}
	return &SendLogRedis{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

func (s *SendLogRedis) indexKey() string {
	return s.prefix + ":sent:dates"
}

func (s *SendLogRedis) dayKey(date string) string {
	return s.prefix + ":sent:" + date
}

// Load reads every day listed in the index.
func (s *SendLogRedis) Load(ctx context.Context) (*delivery.SendLog, error) {
	dates, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read send log index: %w", err)
	}

	log := delivery.NewSendLog()
	for _, date := range dates {
		addrs, err := s.client.SMembers(ctx, s.dayKey(date)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read sends for %s: %w", date, err)
		}
		for _, a := range addrs {
			log.MarkSent(date, a)
		}
	}
	return log, nil
}

// Save replaces the stored log atomically.
func (s *SendLogRedis) Save(ctx context.Context, log *delivery.SendLog) error {
	existing, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to read send log index: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, date := range existing {
			pipe.Del(ctx, s.dayKey(date))
		}
		pipe.Del(ctx, s.indexKey())

		for date, addrs := range log.Entries() {
			if len(addrs) == 0 {
				continue
			}
			members := make([]interface{}, len(addrs))
			for i, a := range addrs {
				members[i] = a
			}
			pipe.SAdd(ctx, s.dayKey(date), members...)
			pipe.SAdd(ctx, s.indexKey(), date)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save send log: %w", err)
	}
	return nil
}

// Reset removes every day and the index.
func (s *SendLogRedis) Reset(ctx context.Context) error {
	return s.Save(ctx, delivery.NewSendLog())
}

// Close closes the redis client.
func (s *SendLogRedis) Close() error {
	return s.client.Close()
}

var _ delivery.SendLogStore = (*SendLogRedis)(nil)
