// Package relay provides the stateless generation relay: it validates
// incoming requests, assembles provider-format multi-turn content,
// invokes the external image-generation capability, and returns a
// normalized image-plus-caption payload.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/easelhq/easel/pkg/api"
	"github.com/easelhq/easel/pkg/gemini"
	"github.com/easelhq/easel/pkg/session"
)

// Generator is the external image-generation capability. The hosted
// model is treated as a black box behind this interface; tests inject
// stubs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

// Relay is the HTTP server relaying generation turns to the provider.
// The generate path holds no state of its own; per-call normalization
// makes it reentrant across concurrent sessions. Session state lives in
// the session manager, exercised only by the session endpoints.
type Relay struct {
	config    Config
	generator Generator
	sessions  *session.Manager
	logger    *zap.Logger
	server    *fiber.App
}

// New creates a Relay around the given generator.
func New(config Config, generator Generator, logger *zap.Logger) *Relay {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Reference images ride inline as base64; allow a few MB.
		BodyLimit: 16 * 1024 * 1024,
	})

	r := &Relay{
		config:    config,
		generator: generator,
		sessions:  session.NewManager(),
		logger:    logger,
		server:    app,
	}

	app.Post("/api/generate", r.handleGenerate)

	app.Post("/api/sessions", r.handleCreateSession)
	app.Get("/api/sessions/:id", r.handleGetSession)
	app.Post("/api/sessions/:id/messages", r.handleSubmitMessage)
	app.Put("/api/sessions/:id/reference", r.handleSetReference)
	app.Delete("/api/sessions/:id/reference", r.handleClearReference)
	app.Put("/api/sessions/:id/reference/flag", r.handleSetReferenceFlag)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return r
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		zap.String("listen", r.config.ListenAddr),
		zap.Duration("request_timeout", r.config.RequestTimeout()),
	)

	return r.server.Listen(r.config.ListenAddr)
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (r *Relay) Shutdown(timeout time.Duration) error {
	return r.server.ShutdownWithTimeout(timeout)
}

// handleGenerate runs one generation turn: validate, assemble, invoke,
// extract. Every failure is translated into a structured response; no
// retries are performed at this layer.
func (r *Relay) handleGenerate(c *fiber.Ctx) error {
	start := time.Now()

	var req api.GenerateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		r.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "invalid request body"})
	}

	resp, err := r.generate(c.Context(), &req)
	if err != nil {
		return r.writeFailure(c, err)
	}

	r.logger.Info("generation complete",
		zap.String("model", resp.Model),
		zap.Int("image_bytes", len(resp.ImageBase64)),
		zap.Duration("duration", time.Since(start)),
	)

	return c.JSON(resp)
}

// generate implements the relay contract independent of the transport.
func (r *Relay) generate(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrMissingPrompt
	}

	model := gemini.ResolveModel(req.Model)
	temperature := gemini.Temperature

	providerReq := &gemini.GenerateRequest{
		Contents: buildContents(req),
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:        &temperature,
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	r.logger.Debug("invoking provider",
		zap.String("model", model),
		zap.Int("turns", len(providerReq.Contents)),
		zap.Bool("has_base_image", req.BaseImage != "" && req.BaseImageMimeType != ""),
	)

	callCtx, cancel := context.WithTimeout(ctx, r.config.RequestTimeout())
	defer cancel()

	providerResp, err := r.generator.GenerateContent(callCtx, model, providerReq)
	if err != nil {
		return nil, err
	}

	out, err := extractResult(providerResp)
	if err != nil {
		return nil, err
	}

	return &api.GenerateResponse{
		ImageBase64: out.imageData,
		MimeType:    out.mimeType,
		Text:        out.text,
		Model:       model,
	}, nil
}

// writeFailure maps a failure onto its status code and structured body.
func (r *Relay) writeFailure(c *fiber.Ctx, err error) error {
	var noImage *NoImageError

	switch {
	case errors.Is(err, ErrMissingPrompt):
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: "missing prompt"})

	case errors.Is(err, gemini.ErrMissingAPIKey):
		r.logger.Error("provider credentials missing")
		return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorResponse{
			Error:   "server not configured",
			Details: "GEMINI_API_KEY is not set",
		})

	case errors.Is(err, ErrEmptyResponse):
		r.logger.Warn("provider returned no candidates")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(api.ErrorResponse{Error: "empty response from model"})

	case errors.As(err, &noImage):
		r.logger.Warn("provider produced no image", zap.Int("text_len", len(noImage.Text)))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(api.ErrorResponse{
			Error: "no image produced",
			Text:  noImage.Text,
		})

	case errors.Is(err, gemini.ErrTimeout),
		errors.Is(err, gemini.ErrUnavailable),
		errors.Is(err, gemini.ErrUpstream):
		r.logger.Error("provider call failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(api.ErrorResponse{
			Error:   "image generation failed",
			Details: err.Error(),
		})

	default:
		r.logger.Error("unexpected failure", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorResponse{
			Error:   "image generation failed",
			Details: err.Error(),
		})
	}
}

// failureMessage renders a relay failure for the session surface, which
// records it as a visible assistant message instead of a status code.
func failureMessage(err error) string {
	var noImage *NoImageError

	switch {
	case errors.Is(err, ErrEmptyResponse):
		return "the model returned an empty response"
	case errors.As(err, &noImage):
		if noImage.Text != "" {
			return noImage.Text
		}
		return "the model produced no image"
	case errors.Is(err, gemini.ErrMissingAPIKey):
		return "server not configured"
	case errors.Is(err, gemini.ErrTimeout):
		return "image generation timed out"
	default:
		return fmt.Sprintf("image generation failed: %v", err)
	}
}
