// Package canvas manages conversation state for a chat-driven image
// canvas: an append-only message log, the single current canvas image,
// and the reference-image toggle that gates whether the canvas is fed
// back into the next generation request.
//
// State is an explicit, serializable value and every transition is a
// pure function from (state, event) to a new state. Nothing in this
// package performs I/O; callers build the outgoing request from
// SubmitPrompt and feed the outcome back through ApplyResult.
package canvas

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easelhq/easel/pkg/api"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryWindow is the number of trailing log entries transmitted with
// each request. Older turns are truncated, not summarized.
const HistoryWindow = 10

// FallbackCaption is used when a successful generation returns no text.
const FallbackCaption = "Here is the updated image."

// errorNoticePrefix visibly marks failed turns in the message log.
const errorNoticePrefix = "⚠️ "

// ErrNotAnImage is returned when an uploaded reference file's declared
// type is not an image type.
var ErrNotAnImage = errors.New("reference file is not an image")

// Image is a binary payload carried as base64 text. Two images are
// distinct entities even if byte-identical; there is no deduplication.
type Image struct {
	Data     string `json:"data"` // base64-encoded
	MIMEType string `json:"mimeType"`
}

// Message is one entry in the conversation log. Immutable once created.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Image     *Image    `json:"image,omitempty"`
}

// State is the full session state. The zero value plus a model is a
// valid empty session; use NewState.
type State struct {
	Messages     []Message `json:"messages"`
	Canvas       *Image    `json:"canvas,omitempty"`
	UseReference bool      `json:"useReference"`
	Busy         bool      `json:"busy"`
	Model        string    `json:"model"`
}

// Result is the tagged outcome of a generation turn. Exactly one of
// the success fields or Err is meaningful, selected by OK.
type Result struct {
	OK    bool
	Image *Image // nil when the provider produced text only
	Text  string
	Model string
	Err   string // surfaced failure message
}

// NewState creates an empty session bound to the given model.
func NewState(model string) State {
	return State{
		Messages: []Message{},
		Model:    model,
	}
}

// SubmitPrompt appends the user's message and builds the outgoing
// request for the turn. It is a no-op (ok=false, unchanged state) when
// the trimmed text is empty or a request is already in flight. The
// returned request carries the trimmed prompt, the session model, the
// last HistoryWindow log entries including the just-appended message,
// and the canvas image iff the reference flag is set.
func SubmitPrompt(s State, text string, now time.Time) (State, *api.GenerateRequest, bool) {
	prompt := strings.TrimSpace(text)
	if prompt == "" || s.Busy {
		return s, nil, false
	}

	next := s
	next.Messages = appendMessage(s.Messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      prompt,
		CreatedAt: now,
	})
	next.Busy = true

	req := &api.GenerateRequest{
		Prompt:  prompt,
		Model:   s.Model,
		History: historyWindow(next.Messages),
	}
	if s.UseReference && s.Canvas != nil {
		req.BaseImage = s.Canvas.Data
		req.BaseImageMimeType = s.Canvas.MIMEType
	}

	return next, req, true
}

// ApplyResult folds a turn's outcome back into the state and clears the
// in-flight flag. On success the assistant message carries the caption
// (or FallbackCaption when blank) and the returned image, which also
// replaces the canvas and forces the reference flag on so the next turn
// chains off it. On failure a visibly-marked error notice is appended
// and the canvas is left untouched.
func ApplyResult(s State, r Result, now time.Time) State {
	next := s
	next.Busy = false

	if !r.OK {
		next.Messages = appendMessage(s.Messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Text:      errorNoticePrefix + r.Err,
			CreatedAt: now,
		})
		return next
	}

	caption := strings.TrimSpace(r.Text)
	if caption == "" {
		caption = FallbackCaption
	}

	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Text:      caption,
		CreatedAt: now,
	}
	if r.Image != nil {
		img := *r.Image
		msg.Image = &img
		next.Canvas = &img
		next.UseReference = true
	}
	next.Messages = appendMessage(s.Messages, msg)

	return next
}

// SetReferenceImage replaces the canvas with an explicitly uploaded
// image, forces the reference flag on, and records an informational
// assistant message naming the file. Rejects non-image MIME types.
func SetReferenceImage(s State, filename, data, mimeType string, now time.Time) (State, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return s, ErrNotAnImage
	}

	img := &Image{Data: data, MIMEType: mimeType}

	next := s
	next.Canvas = img
	next.UseReference = true
	next.Messages = appendMessage(s.Messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Text:      "Reference image set: " + filename,
		CreatedAt: now,
		Image:     img,
	})

	return next, nil
}

// ClearReference drops the canvas image and the reference flag. The
// message log is untouched.
func ClearReference(s State) State {
	next := s
	next.Canvas = nil
	next.UseReference = false
	return next
}

// SetUseReference toggles whether the canvas is attached to the next
// request. A no-op unless a canvas image exists.
func SetUseReference(s State, enabled bool) State {
	if s.Canvas == nil {
		return s
	}
	next := s
	next.UseReference = enabled
	return next
}

// appendMessage copies the log before appending so prior State values
// are never mutated through a shared backing array.
func appendMessage(msgs []Message, m Message) []Message {
	out := make([]Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

// historyWindow derives the wire-form history from the trailing
// HistoryWindow log entries, dropping attachments.
func historyWindow(msgs []Message) []api.HistoryEntry {
	start := 0
	if len(msgs) > HistoryWindow {
		start = len(msgs) - HistoryWindow
	}

	out := make([]api.HistoryEntry, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		out = append(out, api.HistoryEntry{Role: m.Role, Content: m.Text})
	}
	return out
}
