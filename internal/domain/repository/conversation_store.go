package repository

import (
	"github.com/aetheria/aetheria/server/internal/domain/entity"
)

// ConversationStore 会话消息存储。追加序即时间序, 核心不提供
// 重排或删除; ID 在全序列内唯一 (按 ID 更新依赖这一点)。
type ConversationStore interface {
	// Append 追加消息到尾部
	Append(message entity.Message)

	// UpdateByID 按 ID 定位并就地修改消息; ID 不存在时静默跳过
	// 并返回 false (不升级为错误, 容忍陈旧 ID)。
	UpdateByID(id string, mutate func(*entity.Message)) bool

	// Messages 返回当前消息序列的快照副本 (保持追加序)
	Messages() []entity.Message

	// Len 返回消息数量
	Len() int
}
