package relay

import (
	"strings"

	"github.com/easelhq/easel/pkg/api"
	"github.com/easelhq/easel/pkg/gemini"
)

// historyLimit caps how many prior turns are forwarded to the provider.
// The cut happens after blank entries are skipped, so exactly the last
// historyLimit non-empty entries survive.
const historyLimit = 8

// buildContents assembles the provider-format multi-turn content:
// normalized history followed by the current user turn, with the base
// image inlined into the current turn when present.
func buildContents(req *api.GenerateRequest) []gemini.Content {
	contents := normalizeHistory(req.History)

	current := gemini.Content{
		Role:  gemini.RoleUser,
		Parts: []gemini.Part{{Text: strings.TrimSpace(req.Prompt)}},
	}
	if req.BaseImage != "" && req.BaseImageMimeType != "" {
		current.Parts = append(current.Parts, gemini.Part{
			InlineData: &gemini.Blob{
				MIMEType: req.BaseImageMimeType,
				Data:     stripBase64Whitespace(req.BaseImage),
			},
		})
	}

	return append(contents, current)
}

// normalizeHistory drops blank entries, keeps the last historyLimit,
// and remaps roles onto the provider vocabulary: "assistant" becomes
// "model", anything else becomes "user". Input order is preserved and
// each entry yields a single text part.
func normalizeHistory(history []api.HistoryEntry) []gemini.Content {
	kept := make([]api.HistoryEntry, 0, len(history))
	for _, h := range history {
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		kept = append(kept, h)
	}

	if len(kept) > historyLimit {
		kept = kept[len(kept)-historyLimit:]
	}

	contents := make([]gemini.Content, 0, len(kept))
	for _, h := range kept {
		role := gemini.RoleUser
		if h.Role == "assistant" {
			role = gemini.RoleModel
		}
		contents = append(contents, gemini.Content{
			Role:  role,
			Parts: []gemini.Part{{Text: h.Content}},
		})
	}
	return contents
}

// stripBase64Whitespace removes all whitespace from a base64 payload.
// Stripping an already-stripped payload is a no-op.
func stripBase64Whitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
