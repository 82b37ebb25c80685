package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"WSpeicher/internal/modules/assistant/domain/session"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "wspeicher:session:"

// RedisSessionStore Redis 持久化的会话记忆，每个会话一个 JSON 轮次列表。
// 跨进程部署时替代进程内 MemoryStore。
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) (*RedisSessionStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisSessionStore{rdb: rdb}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *RedisSessionStore) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	raw, err := s.rdb.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]session.Turn, 0, len(raw))
	for _, item := range raw {
		var t session.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			// 跳过损坏的条目，不让单条脏数据毁掉整个会话
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, turns ...session.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, string(b))
	}
	// RPush 原子追加：同一会话的并发写不会交叉撕裂单条轮次
	return s.rdb.RPush(ctx, sessionKey(sessionID), values...).Err()
}

func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

var _ session.Store = (*RedisSessionStore)(nil)
