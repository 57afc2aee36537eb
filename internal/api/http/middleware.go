package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/observability"
	apperrors "github.com/moodshelf/recs-gateway/pkg/util"
)

// RequestTimeout bounds every request's context so upstream calls inherit
// a deadline.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// ErrorHandling recovers panics and maps every error to the standard
// envelope: {"error": {"code": ..., "message": ..., "details": ...}}.
func ErrorHandling(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()))
				err = writeError(c, metrics, apperrors.NewInternalError(fmt.Errorf("panic: %v", r)))
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}
		return writeError(c, metrics, err)
	}
}

func writeError(c *fiber.Ctx, metrics *observability.Metrics, err error) error {
	domainErr := apperrors.ToDomainError(err)
	// Copy path/method: fiber backs them with reused request buffers,
	// so retained references mutate once the request completes.
	metrics.RecordError(utils.CopyString(c.Path()), utils.CopyString(c.Method()), domainErr.Code)

	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}
