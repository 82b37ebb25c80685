package session

import (
	"context"
	"hash/fnv"
	"sync"
)

const stripeCount = 32

// MemoryStore 进程内会话记忆。锁按会话 id 分片：
// 同一会话串行，不同会话并行。
type MemoryStore struct {
	stripes [stripeCount]sync.Mutex
	turns   sync.Map // sessionID -> []Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.stripes[h.Sum32()%stripeCount]
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	v, ok := s.turns.Load(sessionID)
	if !ok {
		return []Turn{}, nil
	}
	stored := v.([]Turn)
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	var stored []Turn
	if v, ok := s.turns.Load(sessionID); ok {
		stored = v.([]Turn)
	}
	s.turns.Store(sessionID, append(stored, turns...))
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s.turns.Delete(sessionID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
