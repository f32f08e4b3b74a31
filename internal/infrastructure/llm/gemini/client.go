package gemini

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/service"
	"github.com/aetheria/aetheria/server/internal/infrastructure/prompt"
)

// Client implements service.ChatClient against the Google Gemini API.
//
// The no-throw contract lives here: any failure (missing key, transport,
// non-200, schema mismatch) is converted to a degraded single-fragment
// reply. Callers never see an error value.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	defaultName string
	client      *http.Client
	logger      *zap.Logger
}

// Config Gemini 客户端配置
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	DefaultName string // 用户默认称呼 (displayName 为空时兜底)
}

// New creates a Gemini chat client.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	defaultName := cfg.DefaultName
	if defaultName == "" {
		defaultName = prompt.SeedNameTokenLatin
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 300 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		defaultName: defaultName,
		client:      &http.Client{Transport: transport},
		logger:      logger.With(zap.String("provider", "gemini"), zap.String("model", model)),
	}
}

var _ service.ChatClient = (*Client)(nil)

// Send implements service.ChatClient.
func (c *Client) Send(ctx context.Context, history []entity.Message, text string, attachments []entity.Attachment, displayName string) *service.ParsedReply {
	if c.apiKey == "" {
		// Degrade before touching the network.
		c.logger.Warn("Gemini API key missing, returning configuration fallback")
		return &service.ParsedReply{
			Replies: []service.ReplyFragment{{
				Korean:  prompt.MissingKeyKorean,
				Chinese: prompt.MissingKeyChinese,
			}},
		}
	}

	reply, err := c.generate(ctx, history, text, attachments, displayName)
	if err != nil {
		c.logger.Error("Gemini request failed, returning diegetic fallback", zap.Error(err))
		return &service.ParsedReply{
			Replies: []service.ReplyFragment{{
				Korean:  prompt.FallbackKorean,
				Chinese: prompt.FallbackChinese,
			}},
		}
	}
	return reply
}

// generate performs the actual API round-trip.
func (c *Client) generate(ctx context.Context, history []entity.Message, text string, attachments []entity.Attachment, displayName string) (*service.ParsedReply, error) {
	apiReq := c.buildAPIRequest(history, text, attachments, displayName)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API error %d: %s", resp.StatusCode, string(respBody))
	}

	return c.parseAPIResponse(respBody)
}

// --- Internal ---

// buildAPIRequest projects the conversation into Gemini contents.
// Per turn: attachments first as inlineData parts, then the text part.
// History is sent in full, never truncated or summarized here.
func (c *Client) buildAPIRequest(history []entity.Message, text string, attachments []entity.Attachment, displayName string) *Request {
	finalName := prompt.ResolveName(displayName, c.defaultName)

	apiReq := &Request{
		SystemInstruction: &Content{
			Parts: []Part{{Text: prompt.SystemInstruction(finalName)}},
		},
		GenerationConfig: &GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   ReplySchema(),
		},
	}

	for _, msg := range history {
		content := Content{Role: string(msg.Role)}
		for _, att := range msg.Attachments {
			content.Parts = append(content.Parts, Part{
				InlineData: &InlineData{MimeType: att.MimeType, Data: att.Data},
			})
		}
		if msg.Text != "" {
			content.Parts = append(content.Parts, Part{Text: msg.Text})
		}
		if len(content.Parts) > 0 {
			apiReq.Contents = append(apiReq.Contents, content)
		}
	}

	// Newest user turn. Empty text is valid when attachments are present.
	turn := Content{Role: "user"}
	for _, att := range attachments {
		turn.Parts = append(turn.Parts, Part{
			InlineData: &InlineData{MimeType: att.MimeType, Data: att.Data},
		})
	}
	if strings.TrimSpace(text) != "" {
		turn.Parts = append(turn.Parts, Part{Text: text})
	}
	apiReq.Contents = append(apiReq.Contents, turn)

	return apiReq
}

// structuredReply is the JSON object the responseSchema requires.
type structuredReply struct {
	Replies []struct {
		Korean  string `json:"korean"`
		Chinese string `json:"chinese"`
	} `json:"replies"`
	TriggerEffect string `json:"triggerEffect"`
}

func (c *Client) parseAPIResponse(body []byte) (*service.ParsedReply, error) {
	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse Gemini response: %w", err)
	}

	if len(apiResp.Candidates) == 0 {
		return nil, fmt.Errorf("empty Gemini response: no candidates")
	}

	var responseText string
	for _, part := range apiResp.Candidates[0].Content.Parts {
		responseText += part.Text
	}
	if responseText == "" {
		responseText = `{"replies": []}`
	}

	var structured structuredReply
	if err := json.Unmarshal([]byte(responseText), &structured); err != nil {
		return nil, fmt.Errorf("parse structured reply: %w", err)
	}

	reply := &service.ParsedReply{
		// Unknown effect tags degrade to none rather than failing the turn.
		TriggerEffect: entity.ParseVisualEffect(structured.TriggerEffect),
	}
	for _, r := range structured.Replies {
		reply.Replies = append(reply.Replies, service.ReplyFragment{
			Korean:  r.Korean,
			Chinese: r.Chinese,
		})
	}

	if apiResp.UsageMetadata != nil {
		c.logger.Debug("Gemini turn completed",
			zap.Int("tokens", apiResp.UsageMetadata.Total()),
			zap.Int("fragments", len(reply.Replies)),
		)
	}

	return reply, nil
}
