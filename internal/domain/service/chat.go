package service

import (
	"context"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
)

// ReplyFragment is one short reply bubble: paired Korean text and its
// Chinese translation. A burst carries these in order.
type ReplyFragment struct {
	Korean  string `json:"korean"`
	Chinese string `json:"chinese"`
}

// ParsedReply is the validated in-process shape of one service response.
type ParsedReply struct {
	Replies       []ReplyFragment
	TriggerEffect entity.VisualEffect
}

// ChatClient adapts the external language-model service.
//
// Send never fails from the caller's point of view: transport errors,
// malformed responses and a missing API credential all degrade to a
// well-formed single-fragment reply so the conversation never shows a raw
// error state. The orchestrator has no hard failure path to special-case.
type ChatClient interface {
	Send(ctx context.Context, history []entity.Message, text string, attachments []entity.Attachment, displayName string) *ParsedReply
}
