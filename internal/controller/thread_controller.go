package controller

import (
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/pkg/apperror"
	"mistral-thing-be/internal/pkg/serverutils"
	"mistral-thing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IThreadController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ShowBySlug(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type threadController struct {
	threadService service.IThreadService
}

func NewThreadController(threadService service.IThreadService) IThreadController {
	return &threadController{
		threadService: threadService,
	}
}

func (c *threadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/thread/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.GetAll)
	h.Get("slug/:slug", c.ShowBySlug)
	h.Get(":id", c.Show)
	h.Get(":id/messages", c.Messages)
	h.Patch(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *threadController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.threadService.Create(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create thread", res))
}

func (c *threadController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.threadService.GetAll(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all threads", res))
}

func (c *threadController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ThreadIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.threadService.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show thread", res))
}

func (c *threadController) ShowBySlug(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.threadService.ShowBySlug(ctx.UserContext(), userId, ctx.Params("slug"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show thread", res))
}

func (c *threadController) Messages(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ThreadIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.threadService.Messages(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *threadController) Update(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ThreadIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.threadService.Update(ctx.UserContext(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update thread", res))
}

func (c *threadController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ThreadIDParam(ctx)
	if err != nil {
		return err
	}

	if err := c.threadService.Delete(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete thread", nil))
}
