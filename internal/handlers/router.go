package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
)

type RouterConfig struct {
	Services     *marketplace.Services
	Auth         *AuthHandler
	Google       *GoogleOAuthHandler // optional
	Hub          *realtime.Hub
	AccessSecret string
}

// Register mounts every API route on api. Auth and the websocket are public;
// everything else needs a bearer access token.
func Register(api fiber.Router, cfg RouterConfig) {
	cfg.Auth.Routes(api)
	if cfg.Google != nil {
		cfg.Google.Routes(api)
	}

	msgH := NewMessageHandler(cfg.Services.Messages, cfg.Hub, cfg.AccessSecret)
	msgH.SocketRoutes(api)

	protected := api.Group("/",
		middleware.JWTFromBearer(cfg.AccessSecret),
		middleware.AttachJWTLocals(),
	)

	NewUserHandler(cfg.Services.Users).Routes(protected, middleware.RequireRoles("admin"))
	NewJobHandler(cfg.Services.Jobs).Routes(protected)
	NewProposalHandler(cfg.Services.Proposals).Routes(protected)
	NewRequestHandler(cfg.Services.Requests).Routes(protected)
	NewReviewHandler(cfg.Services.Reviews).Routes(protected)
	msgH.Routes(protected)
}
