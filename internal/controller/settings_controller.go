package controller

import (
	"mistral-thing-be/internal/dto"
	"mistral-thing-be/internal/pkg/apperror"
	"mistral-thing-be/internal/pkg/serverutils"
	"mistral-thing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISettingsController interface {
	RegisterRoutes(r fiber.Router)
	Get(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
}

type settingsController struct {
	settingsService service.ISettingsService
}

func NewSettingsController(settingsService service.ISettingsService) ISettingsController {
	return &settingsController{
		settingsService: settingsService,
	}
}

func (c *settingsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/settings/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.Get)
	h.Patch("", c.Update)
}

func (c *settingsController) Get(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.settingsService.Get(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get settings", res))
}

func (c *settingsController) Update(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.settingsService.Update(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update settings", res))
}
