package controller

import (
	"errors"
	"path/filepath"

	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/pkg/serverutils"
	"ai-assistant-be/internal/service"
	"ai-assistant-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	CurrentSession(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	SelectSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	uploadDir   string
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, uploadDir string, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		uploadDir:   uploadDir,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.Send)

	h := r.Group("/chat")
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.ListSessions)
	h.Get("/session/current", c.CurrentSession)
	h.Get("/session/:id/history", c.History)
	h.Put("/session/:id/select", c.SelectSession)
	h.Delete("/session/:id", c.DeleteSession)
	h.Post("/upload", c.Upload)
}

// Send is the core completion call. Its wire shape is flat on purpose:
// {"message": ...} on success, {"error": ...} with 4xx/5xx otherwise.
func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	req.APIKey = ctx.Get("x-openai-key")

	res, err := c.chatService.Send(ctx.Context(), &req)
	switch {
	case err == nil:
		return ctx.JSON(fiber.Map{"message": res.Message})
	case errors.Is(err, llm.ErrMissingAPIKey):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "OpenAI API key not configured"})
	case errors.Is(err, service.ErrEmptyMessage):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is empty"})
	case errors.Is(err, service.ErrSessionNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat session not found"})
	default:
		c.logger.Error("ChatController", "Send failed", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res := c.chatService.CreateSession()
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	res := c.chatService.Sessions()
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) CurrentSession(ctx *fiber.Ctx) error {
	res, ok := c.chatService.Current()
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "No current session"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show current session", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.chatService.History(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show history", res))
}

func (c *chatController) SelectSession(ctx *fiber.Ctx) error {
	if err := c.chatService.Select(ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success select session", nil))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	c.chatService.DeleteSession(ctx.Params("id"))
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

// Upload stores a file locally and returns its attachment reference. The URL
// is served from the local uploads directory and is not durable.
func (c *chatController) Upload(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing file"))
	}

	id := uuid.NewString()
	name := filepath.Base(file.Filename)
	stored := id + "_" + name
	if err := ctx.SaveFile(file, filepath.Join(c.uploadDir, stored)); err != nil {
		c.logger.Error("ChatController", "Upload failed", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, "Failed to store file"))
	}

	attachment := entity.FileAttachment{
		Id:   id,
		Name: name,
		Type: file.Header.Get("Content-Type"),
		Size: file.Size,
		Url:  "/uploads/" + stored,
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upload file", attachment))
}
