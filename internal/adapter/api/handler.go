package api

import (
	"bytes"
	"errors"

	"cultura-chat/internal/domain/entity"
	"cultura-chat/internal/logging"
	"cultura-chat/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

const serviceName = "Cultura Chat API"

var errNotJSONObject = errors.New("chat request body is not a JSON object")

type ChatHandler struct {
	orchestrator *usecase.Orchestrator
}

func NewChatHandler(orch *usecase.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orch}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	ctx := logging.ContextWithRequestID(c.UserContext(), requestID(c))

	// An unreadable body is treated like any other unexpected failure
	req, err := parseChatRequest(c)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to parse chat request body")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	// The Delivery layer maps the business error to HTTP status codes
	resp, err := h.orchestrator.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, entity.ErrMessageRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
		}
		logging.Ctx(ctx).Error().Err(err).Msg("chat request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// parseChatRequest accepts only a JSON object sent as application/json.
func parseChatRequest(c *fiber.Ctx) (entity.ChatRequest, error) {
	var req entity.ChatRequest
	if !c.Is("json") {
		return req, fiber.ErrUnsupportedMediaType
	}

	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || body[0] != '{' {
		return req, errNotJSONObject
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"service": serviceName,
	})
}

// ErrorHandler turns errors that escaped a handler, including recovered
// panics, into JSON. Routing errors keep their status; everything else is an
// opaque 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code != fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	logging.Error().Err(err).
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("unhandled error in request")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
