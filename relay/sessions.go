package relay

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/easelhq/easel/pkg/api"
	"github.com/easelhq/easel/pkg/canvas"
	"github.com/easelhq/easel/pkg/gemini"
)

type createSessionRequest struct {
	Model string `json:"model,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	Model     string `json:"model"`
}

type submitMessageRequest struct {
	Prompt string `json:"prompt"`
}

type setReferenceRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"` // base64 text
	MimeType string `json:"mimeType"`
}

type referenceFlagRequest struct {
	Enabled bool `json:"enabled"`
}

// handleCreateSession registers a new canvas session. The model is a
// session-scoped property; unknown identifiers fall back to the default.
func (r *Relay) handleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "invalid request body"})
		}
	}

	requested := req.Model
	if requested == "" {
		requested = r.config.DefaultModel
	}
	model := gemini.ResolveModel(requested)
	s := r.sessions.Create(model)

	r.logger.Info("session created",
		zap.String("session_id", s.ID()),
		zap.String("model", model),
	)

	return c.Status(fiber.StatusCreated).JSON(createSessionResponse{
		SessionID: s.ID(),
		Model:     model,
	})
}

// handleGetSession returns the serializable session state.
func (r *Relay) handleGetSession(c *fiber.Ctx) error {
	s, ok := r.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(api.ErrorResponse{Error: "session not found"})
	}
	return c.JSON(s.Snapshot())
}

// handleSubmitMessage runs a full turn against the session: submit the
// prompt, relay it to the provider, and fold the outcome back into the
// state. A failed turn becomes a visible assistant message; prior state
// is left intact so the user can immediately retry.
func (r *Relay) handleSubmitMessage(c *fiber.Ctx) error {
	s, ok := r.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(api.ErrorResponse{Error: "session not found"})
	}

	var req submitMessageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "invalid request body"})
	}

	genReq, accepted := s.Submit(req.Prompt, time.Now())
	if !accepted {
		if s.Snapshot().Busy {
			return c.Status(fiber.StatusConflict).JSON(api.ErrorResponse{Error: "a generation is already in flight"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "missing prompt"})
	}

	genResp, err := r.generate(c.Context(), genReq)

	var result canvas.Result
	if err != nil {
		r.logger.Warn("turn failed",
			zap.String("session_id", s.ID()),
			zap.Error(err),
		)
		result = canvas.Result{OK: false, Err: failureMessage(err)}
	} else {
		result = canvas.Result{
			OK:    true,
			Image: &canvas.Image{Data: genResp.ImageBase64, MIMEType: genResp.MimeType},
			Text:  genResp.Text,
			Model: genResp.Model,
		}
	}

	state := s.Apply(result, time.Now())
	return c.JSON(state)
}

// handleSetReference replaces the canvas with an uploaded image and
// forces the reference flag on.
func (r *Relay) handleSetReference(c *fiber.Ctx) error {
	s, ok := r.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(api.ErrorResponse{Error: "session not found"})
	}

	var req setReferenceRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "invalid request body"})
	}

	if err := s.SetReference(req.Filename, stripBase64Whitespace(req.Data), req.MimeType, time.Now()); err != nil {
		if errors.Is(err, canvas.ErrNotAnImage) {
			return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "reference file must be an image"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorResponse{Error: "failed to set reference image"})
	}

	return c.JSON(s.Snapshot())
}

// handleClearReference drops the canvas image and reference flag.
func (r *Relay) handleClearReference(c *fiber.Ctx) error {
	s, ok := r.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(api.ErrorResponse{Error: "session not found"})
	}

	s.ClearReference()
	return c.JSON(s.Snapshot())
}

// handleSetReferenceFlag toggles whether the canvas image rides along
// with the next request. Silently a no-op without a canvas image.
func (r *Relay) handleSetReferenceFlag(c *fiber.Ctx) error {
	s, ok := r.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(api.ErrorResponse{Error: "session not found"})
	}

	var req referenceFlagRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "invalid request body"})
	}

	s.SetUseReference(req.Enabled)
	return c.JSON(s.Snapshot())
}
