package service

import (
	"strings"
	"sync"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/repository"
	"github.com/aetheria/aetheria/server/internal/infrastructure/prompt"
)

// DefaultSystemAvatar 默认的角色头像
const DefaultSystemAvatar = "https://i.pinimg.com/736x/87/03/49/8703493c061555627685605663737e5c.jpg"

// DefaultThemeColor 默认主题色
const DefaultThemeColor = "#ffc0cb"

// Profile holds the user-facing customization state: display name, theme
// color and the two avatars. Process-lifetime, like the rest of the
// conversation.
type Profile struct {
	store repository.ConversationStore

	mu            sync.RWMutex
	name          string
	themeColor    string
	userAvatar    string // data URI, empty until uploaded
	systemAvatar  string // data URI or URL
	seedRewritten bool
}

// ProfileSnapshot 对外暴露的只读快照
type ProfileSnapshot struct {
	Name         string `json:"name"`
	ThemeColor   string `json:"themeColor"`
	UserAvatar   string `json:"userAvatar,omitempty"`
	SystemAvatar string `json:"systemAvatar"`
}

// NewProfile 创建用户侧配置状态
func NewProfile(store repository.ConversationStore, defaultName string) *Profile {
	if defaultName == "" {
		defaultName = prompt.SeedNameTokenLatin
	}
	return &Profile{
		store:        store,
		name:         defaultName,
		themeColor:   DefaultThemeColor,
		systemAvatar: DefaultSystemAvatar,
	}
}

// SetName sets the display name. The first time a custom (non-default,
// non-blank) name lands, the seed message's placeholder name tokens are
// rewritten in place so the model never sees the stale name in history.
// The rewrite touches only the seed message and happens at most once.
func (p *Profile) SetName(name string) {
	trimmed := strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	if trimmed == "" {
		return // keep current name, matching the blank-entry behavior
	}
	p.name = trimmed

	if p.seedRewritten {
		return
	}
	p.seedRewritten = true
	p.store.UpdateByID(prompt.SeedMessageID, func(m *entity.Message) {
		m.Text = strings.ReplaceAll(m.Text, prompt.SeedNameTokenKorean, trimmed)
		m.Translation = strings.ReplaceAll(m.Translation, prompt.SeedNameTokenLatin, trimmed)
	})
}

// Name 返回当前称呼
func (p *Profile) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// SetThemeColor 设置主题色
func (p *Profile) SetThemeColor(color string) {
	if strings.TrimSpace(color) == "" {
		return
	}
	p.mu.Lock()
	p.themeColor = color
	p.mu.Unlock()
}

// SetUserAvatar 设置用户头像 (data URI)
func (p *Profile) SetUserAvatar(dataURI string) {
	p.mu.Lock()
	p.userAvatar = dataURI
	p.mu.Unlock()
}

// SetSystemAvatar 设置角色头像 (data URI)
func (p *Profile) SetSystemAvatar(dataURI string) {
	p.mu.Lock()
	p.systemAvatar = dataURI
	p.mu.Unlock()
}

// Snapshot 返回只读快照
func (p *Profile) Snapshot() ProfileSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProfileSnapshot{
		Name:         p.name,
		ThemeColor:   p.themeColor,
		UserAvatar:   p.userAvatar,
		SystemAvatar: p.systemAvatar,
	}
}
