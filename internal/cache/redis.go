package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// IDSets 在 Redis 中缓存用户的隐藏/置顶 id 集合，值为逗号分隔的 id
type IDSets struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewIDSets(rdb redis.UniversalClient, ttl time.Duration) *IDSets {
	return &IDSets{rdb: rdb, ttl: ttl, prefix: "opinions:ids:"}
}

// Key 缓存键，如 opinions:ids:hidden:opinion:7
func (c *IDSets) Key(set, kind string, userID uint) string {
	return fmt.Sprintf("%s%s:%s:%d", c.prefix, set, kind, userID)
}

// Get 命中返回 true；未命中不是错误
func (c *IDSets) Get(ctx context.Context, key string) ([]uint, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	if val == "" {
		return []uint{}, true, nil
	}
	parts := strings.Split(val, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			// 脏数据按未命中处理
			return nil, false, nil
		}
		ids = append(ids, uint(n))
	}
	return ids, true, nil
}

func (c *IDSets) Set(ctx context.Context, key string, ids []uint) error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return errors.Wrap(c.rdb.Set(ctx, key, strings.Join(parts, ","), c.ttl).Err(), "redis set")
}

func (c *IDSets) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(c.rdb.Del(ctx, keys...).Err(), "redis del")
}
