// Package gemini provides internal representations of the Gemini
// generateContent API requests and responses, plus a small HTTP client
// for invoking it.
package gemini

// Roles used in multi-turn content. The API only accepts these two.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Blob carries inline binary data as base64 text.
type Blob struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data"` // base64-encoded, no whitespace
}

// Part is one piece of a content entry: text or inline image data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is a single turn in a multi-turn request or response.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// GenerationConfig contains model inference parameters.
type GenerationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"` // "TEXT", "IMAGE"
}

// GenerateRequest is the body POSTed to models/{model}:generateContent.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated response alternative.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// GenerateResponse is the provider's reply. Zero candidates means the
// model produced nothing usable.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates,omitempty"`
}

// apiError is the provider's error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
