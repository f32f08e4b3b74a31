package usecase

import (
	"io"

	"go.uber.org/zap"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/service"
	"github.com/aetheria/aetheria/server/internal/infrastructure/media"
)

// FileUpload 上传的原始文件 (尚未编码)
type FileUpload struct {
	Name         string
	DeclaredType string
	Reader       io.Reader
}

// SendTurnCommand 一次用户回合: 文本和/或附件, 至少一项非空。
// Attachments 是浏览器侧已编码好的附件; Files 是待编码的原始上传。
type SendTurnCommand struct {
	Text        string
	Attachments []entity.Attachment
	Files       []FileUpload
}

// SendTurnUseCase 用户回合用例: 编码附件 → 交给编排器。
type SendTurnUseCase struct {
	orchestrator *service.Orchestrator
	profile      *service.Profile
	codec        *media.Codec
	logger       *zap.Logger
}

// NewSendTurnUseCase 创建用户回合用例
func NewSendTurnUseCase(orchestrator *service.Orchestrator, profile *service.Profile, codec *media.Codec, logger *zap.Logger) *SendTurnUseCase {
	return &SendTurnUseCase{
		orchestrator: orchestrator,
		profile:      profile,
		codec:        codec,
		logger:       logger,
	}
}

// Execute 处理一次用户回合。单个文件编码失败只记日志并跳过,
// 不影响回合本身, 也不触碰会话存储。
func (uc *SendTurnUseCase) Execute(cmd SendTurnCommand) (entity.Message, error) {
	attachments := make([]entity.Attachment, 0, len(cmd.Attachments)+len(cmd.Files))
	attachments = append(attachments, cmd.Attachments...)

	for _, f := range cmd.Files {
		att, err := uc.codec.EncodeReader(f.Reader, f.Name)
		if err != nil {
			uc.logger.Warn("Attachment encoding failed, skipping file",
				zap.String("file", f.Name),
				zap.Error(err),
			)
			continue
		}
		if f.DeclaredType != "" {
			att.MimeType = f.DeclaredType
		}
		attachments = append(attachments, att)
	}

	return uc.orchestrator.SendTurn(cmd.Text, attachments, uc.profile.Name())
}
