// Package redis provides a report store backed by Redis.
//
// Each report is a JSON string under <prefix>report:<id>. A sorted set at
// <prefix>reports, scored by creation time in milliseconds, indexes them for
// newest-first listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/deepresearch/store"
)

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "deepresearch:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "deepresearch:"
	TTL      time.Duration // Expiration for reports, default 0 (no expiration)
}

// ReportStore implements store.ReportStore using Redis.
type ReportStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.ReportStore = (*ReportStore)(nil)

// New creates a store from connection options.
func New(opts Options) *ReportStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix, opts.TTL)
}

// NewFromURL creates a store from a redis:// URL.
func NewFromURL(url, prefix string) (*ReportStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opts), prefix, 0), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *ReportStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ReportStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ReportStore) reportKey(id string) string {
	return fmt.Sprintf("%sreport:%s", s.prefix, id)
}

func (s *ReportStore) indexKey() string {
	return s.prefix + "reports"
}

// Save stores a report and indexes it by creation time.
func (s *ReportStore) Save(ctx context.Context, report *store.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.reportKey(report.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(report.CreatedAt.UnixMilli()),
		Member: report.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save report to redis: %w", err)
	}
	return nil
}

// Load retrieves a report by ID.
func (s *ReportStore) Load(ctx context.Context, id string) (*store.Report, error) {
	data, err := s.client.Get(ctx, s.reportKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load report from redis: %w", err)
	}

	var r store.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// List returns reports newest first. Index entries whose report expired are
// skipped.
func (s *ReportStore) List(ctx context.Context, limit int) ([]*store.Report, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if len(ids) == 0 {
		return []*store.Report{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.reportKey(id)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}

	reports := make([]*store.Report, 0, len(results))
	for _, result := range results {
		data, ok := result.(string)
		if !ok {
			continue
		}
		var r store.Report
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, &r)
	}
	return reports, nil
}

// Delete removes a report and its index entry.
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.reportKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// Close closes the underlying client.
func (s *ReportStore) Close() error {
	return s.client.Close()
}
