// Package api defines the request and response payloads exchanged
// between the canvas session store and the generation relay.
package api

// HistoryEntry is one prior turn in wire form: attachments dropped,
// only role and text carried. The relay remaps roles onto the
// provider's vocabulary.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the payload for one generation turn.
type GenerateRequest struct {
	Prompt            string         `json:"prompt"`
	Model             string         `json:"model,omitempty"`
	BaseImage         string         `json:"baseImage,omitempty"`         // base64 text
	BaseImageMimeType string         `json:"baseImageMimeType,omitempty"` // paired with BaseImage
	History           []HistoryEntry `json:"history,omitempty"`
}

// GenerateResponse is the normalized success payload.
type GenerateResponse struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
	Text        string `json:"text"`
	Model       string `json:"model"`
}

// ErrorResponse is the structured failure payload. Details carries
// diagnostic text; Text carries any partial model output (set when the
// provider replied with text but produced no image).
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Text    string `json:"text,omitempty"`
}
