package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultSetKey is the Redis set holding all entries unless configured
// otherwise.
const DefaultSetKey = "release-tracker"

// RedisStore keeps every entry as a member of a single set, each member
// serialized as "{key}:{version}". Lookups scan the set filtering on the
// "{key}:" prefix, which is linear in the set size and fine for the
// tens-to-low-thousands of items this tool tracks.
type RedisStore struct {
	client *redis.Client
	setKey string
}

// NewRedisStore connects to Redis and verifies the connection; a failed
// ping is fatal for the run.
func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	addr := opts.String("addr", "")
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", opts.String("host", "localhost"), opts.Int("port", 6379))
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.String("password", ""),
		DB:       opts.Int("db", 0),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &RedisStore{
		client: client,
		setKey: opts.String("set_key", DefaultSetKey),
	}, nil
}

// SetKey returns the configured set key, for user-facing output.
func (s *RedisStore) SetKey() string { return s.setKey }

func (s *RedisStore) GetLastRelease(ctx context.Context, key string) (string, bool, error) {
	members, err := s.client.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	prefix := key + ":"
	for _, member := range members {
		if strings.HasPrefix(member, prefix) {
			return member[len(prefix):], true, nil
		}
	}
	return "", false, nil
}

func (s *RedisStore) SetLastRelease(ctx context.Context, key, tag string) error {
	members, err := s.client.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	prefix := key + ":"
	var stale []interface{}
	for _, member := range members {
		if strings.HasPrefix(member, prefix) {
			stale = append(stale, member)
		}
	}

	// Remove-then-add in one transaction so a concurrent reader never
	// sees the key without any member.
	pipe := s.client.TxPipeline()
	if len(stale) > 0 {
		pipe.SRem(ctx, s.setKey, stale...)
	}
	pipe.SAdd(ctx, s.setKey, key+":"+tag)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) GetAllEntries(ctx context.Context, prefix string) (map[string]string, error) {
	members, err := s.client.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	entries := make(map[string]string)
	for _, member := range members {
		key, tag, ok := splitMember(member)
		if !ok {
			continue
		}
		if prefix == "" || strings.HasPrefix(key, prefix) {
			entries[key] = tag
		}
	}
	return entries, nil
}

func (s *RedisStore) DeleteEntries(ctx context.Context, prefix string) (int, error) {
	members, err := s.client.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doomed []interface{}
	for _, member := range members {
		key, _, ok := splitMember(member)
		if !ok {
			continue
		}
		if prefix == "" || strings.HasPrefix(key, prefix) {
			doomed = append(doomed, member)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	removed, err := s.client.SRem(ctx, s.setKey, doomed...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(removed), nil
}

// splitMember separates a "{key}:{tag}" set member. Keys can contain
// colons (maven repo ids are groupId:artifactId) but no supported
// platform emits a tag with one, so the last colon is the separator.
func splitMember(member string) (key, tag string, ok bool) {
	idx := strings.LastIndex(member, ":")
	if idx < 0 {
		return "", "", false
	}
	return member[:idx], member[idx+1:], true
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
