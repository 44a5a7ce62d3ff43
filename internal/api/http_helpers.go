package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/flux/internal/ingest"
	"github.com/terraincognita07/flux/internal/services"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondServiceError maps service and ingest failures onto HTTP statuses.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	var requestErr *fiber.Error
	switch {
	case errors.As(err, &requestErr):
		return apiError(c, requestErr.Code, requestErr.Message)
	case errors.Is(err, ingest.ErrUnsupportedFileType),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrMalformedExport),
		errors.Is(err, ingest.ErrMissingExportedAt):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoDataset), errors.Is(err, services.ErrNoModel):
		return apiError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInsufficientData),
		errors.Is(err, services.ErrUnsupportedModelType),
		errors.Is(err, services.ErrInvalidParams):
		return apiError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		handler.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

func buildExportFilename(now time.Time) string {
	return fmt.Sprintf("flux-export-%s.json", now.Format("2006-01-02"))
}

func setExportAttachmentHeaders(c *fiber.Ctx, filename string) {
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
}
