package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetheria/aetheria/server/internal/application/usecase"
	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/repository"
	"github.com/aetheria/aetheria/server/internal/domain/service"
	apperrors "github.com/aetheria/aetheria/server/pkg/errors"
)

// ChatHandler 对话 API 处理器
type ChatHandler struct {
	sendTurn     *usecase.SendTurnUseCase
	orchestrator *service.Orchestrator
	store        repository.ConversationStore
	logger       *zap.Logger
}

// NewChatHandler 创建对话处理器
func NewChatHandler(sendTurn *usecase.SendTurnUseCase, orchestrator *service.Orchestrator, store repository.ConversationStore, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		sendTurn:     sendTurn,
		orchestrator: orchestrator,
		store:        store,
		logger:       logger,
	}
}

// SendTurnRequest 发送回合请求
type SendTurnRequest struct {
	Text        string              `json:"text"`
	Attachments []entity.Attachment `json:"attachments"`
}

// SendTurn 提交一次用户回合
// POST /api/v1/chat/turns
//
// JSON 提交已编码附件; multipart/form-data 提交原始文件 (字段 files)。
// 回复以 WebSocket 事件按节奏到达, 这里只确认用户消息已入库。
func (h *ChatHandler) SendTurn(c *gin.Context) {
	cmd := usecase.SendTurnCommand{}

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		cmd.Text = c.PostForm("text")
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				h.logger.Warn("Skipping unreadable upload",
					zap.String("file", fh.Filename), zap.Error(err))
				continue
			}
			defer f.Close()
			cmd.Files = append(cmd.Files, usecase.FileUpload{
				Name:         fh.Filename,
				DeclaredType: fh.Header.Get("Content-Type"),
				Reader:       f,
			})
		}
	} else {
		var req SendTurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cmd.Text = req.Text
		cmd.Attachments = req.Attachments
	}

	userMsg, err := h.sendTurn.Execute(cmd)
	if err != nil {
		if apperrors.IsInvalidInput(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to submit turn", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": userMsg,
		"state":   h.orchestrator.State(),
	})
}

// ListMessages 返回当前会话全部消息 (追加序)
// GET /api/v1/chat/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"messages": h.store.Messages(),
	})
}

// ToggleTranslation 翻转一条消息的翻译可见性
// POST /api/v1/chat/messages/:id/translation
//
// ID 不存在时同样返回 204: 陈旧 ID 是静默空操作, 不是错误。
func (h *ChatHandler) ToggleTranslation(c *gin.Context) {
	h.orchestrator.ToggleTranslation(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// GetState 返回编排器当前状态快照
// GET /api/v1/chat/state
func (h *ChatHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.State())
}
