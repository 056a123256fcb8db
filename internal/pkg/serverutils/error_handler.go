package serverutils

import (
	"errors"

	"mistral-thing-be/internal/pkg/apperror"
	"mistral-thing-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by downstream handlers into the
// JSON envelope. Unknown errors become a generic 500 and are logged in full.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err,
			})
		}
		message := appErr.Message
		if message == "" {
			message = appErr.Code
		}
		return ctx.Status(appErr.Status).JSON(ErrorResponse(appErr.Code, message))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := apperror.CodeBadRequest
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = apperror.CodeNotFound
		case fiber.StatusUnauthorized:
			code = apperror.CodeUnauthorized
		case fiber.StatusUnprocessableEntity:
			code = apperror.CodeValidation
		}
		if fiberErr.Code >= fiber.StatusInternalServerError {
			code = apperror.CodeInternal
		}
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(code, fiberErr.Message))
	}

	log.Error("HTTP", "Unhandled error", map[string]interface{}{
		"path":  ctx.Path(),
		"error": err,
	})
	internal := apperror.Internal(err)
	return ctx.Status(internal.Status).JSON(ErrorResponse(internal.Code, internal.Message))
}
