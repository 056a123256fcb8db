package serverutils

import (
	"os"

	"mistral-thing-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIDLocal = "user_id"

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return apperror.Unauthorized("User not found. Please login to continue.")
	}

	userID, err := ParseUserToken(authHeader[7:])
	if err != nil {
		return err
	}

	ctx.Locals(userIDLocal, userID.String())
	return ctx.Next()
}

// ParseUserToken validates an HMAC-signed token issued by the identity
// provider and returns its user_id claim.
func ParseUserToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("Invalid claims")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("Token missing user_id")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("Invalid user ID format in token")
	}
	return userID, nil
}

// CurrentUserID reads the user set by JwtMiddleware.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := ctx.Locals(userIDLocal).(string)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("User not found. Please login to continue.")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("User not found. Please login to continue.")
	}
	return userID, nil
}

// ThreadIDParam parses the :id path parameter; malformed ids are a 404.
func ThreadIDParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.NotFound("Thread not found.")
	}
	return id, nil
}
