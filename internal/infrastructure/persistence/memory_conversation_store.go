package persistence

import (
	"sync"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/repository"
)

// MemoryConversationStore 内存实现的会话存储。
// 单会话、进程生命周期, 无持久化 (与页面级应用一致)。
// 多协程并发追加时由互斥锁串行化, 保证追加序不被打乱。
type MemoryConversationStore struct {
	mu       sync.RWMutex
	messages []entity.Message
	// ID 到下标的索引, 支撑按 ID 更新
	index map[string]int
}

// NewMemoryConversationStore 创建内存会话存储, 可带种子消息
func NewMemoryConversationStore(seed ...entity.Message) repository.ConversationStore {
	s := &MemoryConversationStore{
		messages: make([]entity.Message, 0, len(seed)+16),
		index:    make(map[string]int),
	}
	for _, msg := range seed {
		s.appendLocked(msg)
	}
	return s
}

// Append 追加消息到尾部
func (s *MemoryConversationStore) Append(message entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(message)
}

func (s *MemoryConversationStore) appendLocked(message entity.Message) {
	s.index[message.ID] = len(s.messages)
	s.messages = append(s.messages, message)
}

// UpdateByID 按 ID 更新消息; 不存在时静默跳过
func (s *MemoryConversationStore) UpdateByID(id string, mutate func(*entity.Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	mutate(&s.messages[i])
	return true
}

// Messages 返回消息序列的快照副本
func (s *MemoryConversationStore) Messages() []entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len 返回消息数量
func (s *MemoryConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
