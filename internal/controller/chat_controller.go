package controller

import (
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/pkg/apperror"
	"mistral-thing-be/internal/pkg/serverutils"
	"mistral-thing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("threads/:id/messages", c.SendMessage)
	h.Post("threads/:id/stop", c.Stop)
}

// SendMessage accepts the message and queues the generation. The reply
// arrives over the sync channel.
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	threadId, err := serverutils.ThreadIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.UserContext(), userId, threadId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Message accepted", res))
}

func (c *chatController) Stop(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	threadId, err := serverutils.ThreadIDParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatService.Stop(ctx.UserContext(), userId, threadId); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Stop requested", nil))
}
