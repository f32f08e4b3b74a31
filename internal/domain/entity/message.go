package entity

import (
	"time"
)

// Role 消息角色
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment 附件。二进制媒体跨边界的统一表示:
// base64 载荷 + MIME 类型, 出站请求与历史回放共用同一形态。
type Attachment struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // Base64
	Name     string `json:"name,omitempty"`
}

// IsImage 判断附件是否为图片 (渲染分支用)
func (a Attachment) IsImage() bool {
	return len(a.MimeType) >= 6 && a.MimeType[:6] == "image/"
}

// Message 会话消息。创建后除 ShowTranslation 开关与种子消息的
// 一次性占位名改写外不再变更。
type Message struct {
	ID              string       `json:"id"`
	Role            Role         `json:"role"`
	Text            string       `json:"text"`
	Translation     string       `json:"translation,omitempty"` // 中文翻译
	ShowTranslation bool         `json:"showTranslation"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

// NewUserMessage 创建用户消息
func NewUserMessage(id, text string, attachments []Attachment) Message {
	return Message{
		ID:          id,
		Role:        RoleUser,
		Text:        text,
		Attachments: attachments,
		Timestamp:   time.Now(),
	}
}

// NewModelMessage 创建模型消息, 翻译默认可见
func NewModelMessage(id, text, translation string) Message {
	return Message{
		ID:              id,
		Role:            RoleModel,
		Text:            text,
		Translation:     translation,
		ShowTranslation: true,
		Timestamp:       time.Now(),
	}
}

// IsFromUser 判断是否来自用户
func (m Message) IsFromUser() bool {
	return m.Role == RoleUser
}
