package rest

import (
	"github.com/AzielCF/az-posts/domains/health"
	"github.com/AzielCF/az-posts/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

// GetStatus answers 503 when any dependency reports an error.
func (h *Health) GetStatus(c *fiber.Ctx) error {
	records, err := h.Service.GetStatus(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(utils.ResponseData{
			Status:  500,
			Code:    "INTERNAL_SERVER_ERROR",
			Message: err.Error(),
		})
	}

	status := fiber.StatusOK
	for _, r := range records {
		if r.Status == health.StatusError {
			status = fiber.StatusServiceUnavailable
			break
		}
	}

	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: records,
	})
}
