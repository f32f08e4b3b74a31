package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetheria/aetheria/server/internal/domain/service"
	"github.com/aetheria/aetheria/server/internal/infrastructure/media"
)

// ProfileHandler 用户侧配置处理器 (称呼、主题色、头像)
type ProfileHandler struct {
	profile *service.Profile
	codec   *media.Codec
	logger  *zap.Logger
}

// NewProfileHandler 创建配置处理器
func NewProfileHandler(profile *service.Profile, codec *media.Codec, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profile: profile,
		codec:   codec,
		logger:  logger,
	}
}

// GetProfile 返回配置快照
// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, h.profile.Snapshot())
}

// UpdateProfileRequest 更新配置请求
type UpdateProfileRequest struct {
	Name       string `json:"name"`
	ThemeColor string `json:"themeColor"`
}

// UpdateProfile 更新称呼/主题色。第一次设置自定义称呼会就地改写
// 种子消息里的占位名。
// PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Name != "" {
		h.profile.SetName(req.Name)
	}
	if req.ThemeColor != "" {
		h.profile.SetThemeColor(req.ThemeColor)
	}

	c.JSON(http.StatusOK, h.profile.Snapshot())
}

// UploadAvatar 上传头像 (multipart 字段 avatar, kind=user|system)。
// 编码失败只影响本次上传, 返回 422。
// POST /api/v1/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read avatar file"})
		return
	}
	defer f.Close()

	att, err := h.codec.EncodeReader(f, fh.Filename)
	if err != nil {
		h.logger.Warn("Avatar encoding failed",
			zap.String("file", fh.Filename), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "avatar encoding failed"})
		return
	}

	dataURI := h.codec.DataURI(att)
	switch c.PostForm("kind") {
	case "system":
		h.profile.SetSystemAvatar(dataURI)
	default:
		h.profile.SetUserAvatar(dataURI)
	}

	c.JSON(http.StatusOK, h.profile.Snapshot())
}
