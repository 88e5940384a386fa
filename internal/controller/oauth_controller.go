package controller

import (
	"errors"

	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	AuthURL(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
	logger    logger.ILogger
}

func NewOAuthController(service service.IOAuthService, clientURL string, log logger.ILogger) IOAuthController {
	return &oauthController{
		service:   service,
		clientURL: clientURL,
		logger:    log,
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Get("/google", c.AuthURL)
	h.Get("/callback/google", c.Callback)
}

// AuthURL hands the UI the Google authorization URL; the UI opens it in a
// popup and polls for the redirect.
func (c *oauthController) AuthURL(ctx *fiber.Ctx) error {
	url, err := c.service.GetAuthURL()
	if err != nil {
		c.logger.Error("OAuthController", "Failed to build auth URL", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate authentication URL"})
	}
	return ctx.JSON(fiber.Map{"authUrl": url})
}

// Callback lands the browser after Google consent. Outcomes are reported to
// the UI as query flags on the client URL, never as API errors.
func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return ctx.Redirect(c.clientURL + "/?error=no_code")
	}

	err := c.service.HandleCallback(ctx.Context(), code, ctx.Query("state"))
	switch {
	case errors.Is(err, service.ErrInvalidState):
		return ctx.Redirect(c.clientURL + "/?error=invalid_state")
	case err != nil:
		c.logger.Error("OAuthController", "Callback failed", map[string]interface{}{"error": err.Error()})
		return ctx.Redirect(c.clientURL + "/?error=auth_failed")
	default:
		return ctx.Redirect(c.clientURL + "/?auth=success")
	}
}
