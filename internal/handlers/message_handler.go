package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/utils"
)

type MessageHandler struct {
	Messages     *marketplace.MessageService
	Hub          *realtime.Hub
	AccessSecret string
}

func NewMessageHandler(messages *marketplace.MessageService, hub *realtime.Hub, accessSecret string) *MessageHandler {
	return &MessageHandler{Messages: messages, Hub: hub, AccessSecret: accessSecret}
}

func (h *MessageHandler) Routes(r fiber.Router) {
	g := r.Group("/messages")
	g.Get("/inbox", h.Inbox)
	g.Get("/sent", h.Sent)
	g.Post("/", h.Send)
	g.Delete("/:id", h.Hide)
}

// SocketRoutes mounts the websocket endpoint. Browsers cannot set headers on
// the upgrade, so the access token travels in the query string.
func (h *MessageHandler) SocketRoutes(r fiber.Router) {
	r.Use("/ws", h.UpgradeCheck)
	r.Get("/ws", websocket.New(h.WebSocketHandler))
}

type SendMessageReq struct {
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	recipientID, err := uuid.Parse(req.Recipient)
	if err != nil {
		errs.Add("recipient", "A valid recipient id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		errs.Add("body", "Message cannot be empty")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	msg, err := h.Messages.Send(c.UserContext(), actor, marketplace.MessageInput{
		RecipientID: recipientID,
		Title:       req.Title,
		Body:        req.Body,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, msg)
}

func (h *MessageHandler) Inbox(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	msgs, err := h.Messages.Inbox(c.UserContext(), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, msgs)
}

func (h *MessageHandler) Sent(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	msgs, err := h.Messages.Sent(c.UserContext(), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, msgs)
}

// Hide removes a message from the caller's inbox. The sender keeps it.
func (h *MessageHandler) Hide(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramUUID(c, "id", "Message")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Messages.Hide(c.UserContext(), actor, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message hidden",
	})
}

// UpgradeCheck authenticates the websocket handshake before upgrading.
func (h *MessageHandler) UpgradeCheck(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims, err := utils.ParseJWT(h.AccessSecret, c.Query("token"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	c.Locals("userId", uid)
	return c.Next()
}

func (h *MessageHandler) WebSocketHandler(c *websocket.Conn) {
	uid, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		log.Println("WebSocket: connection without a verified user")
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected\n", uid)
	h.Hub.Serve(c, uid)
}
