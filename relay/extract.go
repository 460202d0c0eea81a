package relay

import (
	"strings"

	"github.com/easelhq/easel/pkg/gemini"
)

// extracted is the normalized output pulled from a provider response.
type extracted struct {
	imageData string
	mimeType  string
	text      string
}

// extractResult scans the first candidate's parts in order. Text parts
// are concatenated with newline separators; the first part carrying
// inline image data supplies the output image, later image parts are
// ignored. Returns ErrEmptyResponse when no candidate arrived and a
// NoImageError (carrying any accumulated text) when the candidate held
// no image data.
func extractResult(resp *gemini.GenerateResponse) (*extracted, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var texts []string
	out := &extracted{}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
		if part.InlineData != nil && part.InlineData.Data != "" && out.imageData == "" {
			out.imageData = stripBase64Whitespace(part.InlineData.Data)
			out.mimeType = part.InlineData.MIMEType
			if out.mimeType == "" {
				out.mimeType = gemini.DefaultImageMIMEType
			}
		}
	}

	out.text = strings.Join(texts, "\n")

	if out.imageData == "" {
		return nil, &NoImageError{Text: out.text}
	}

	return out, nil
}
