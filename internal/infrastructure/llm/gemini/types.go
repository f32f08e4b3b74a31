package gemini

// --- Google Gemini API Types ---
// Reference: https://ai.google.dev/api/rest/v1beta/models/generateContent
//
// Only the surface this app uses is modeled:
// - contents[].parts[] turns with text and inlineData (base64 media)
// - systemInstruction as a separate field
// - generationConfig with structured JSON output (responseSchema)

// Request is the Gemini generateContent request format.
type Request struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content represents a conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" | "model"
	Parts []Part `json:"parts"`
}

// Part is a polymorphic content element within a Content.
type Part struct {
	// For text content
	Text string `json:"text,omitempty"`

	// For inline binary media (images, audio, files)
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64-encoded media with its MIME type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerationConfig controls generation parameters. ResponseMIMEType and
// ResponseSchema together request structured JSON output.
type GenerationConfig struct {
	Temperature      float64                `json:"temperature,omitempty"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

// Response is the Gemini generateContent response format.
type Response struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Candidate is a single response candidate.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"` // "STOP" | "MAX_TOKENS" | "SAFETY"
}

// UsageMetadata reports token consumption.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Total returns the total token count.
func (u *UsageMetadata) Total() int {
	if u.TotalTokenCount > 0 {
		return u.TotalTokenCount
	}
	return u.PromptTokenCount + u.CandidatesTokenCount
}

// ReplySchema is the responseSchema requiring the model to answer with
// {replies: [{korean, chinese}...], triggerEffect?}.
func ReplySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"replies": map[string]interface{}{
				"type":        "array",
				"description": "A list of 1-3 short, separate chat messages.",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"korean": map[string]interface{}{
							"type":        "string",
							"description": "A short, conversational message in Korean.",
						},
						"chinese": map[string]interface{}{
							"type":        "string",
							"description": "The Chinese translation of the specific Korean message.",
						},
					},
					"required": []string{"korean", "chinese"},
				},
			},
			"triggerEffect": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"heart", "butterfly", "cat", "firework"},
				"description": "Return this ONLY if the user is sad/unhappy and you want to cheer them up with a visual magic spell.",
				"nullable":    true,
			},
		},
		"required": []string{"replies"},
	}
}
