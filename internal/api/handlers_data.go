package api

import (
	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) ListCycles(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	cycles, err := handler.training.Cycles(profile)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"cycles": cycles})
}

func (handler *Handler) ShowFeatures(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	report, err := handler.training.Features(profile)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(report)
}

func (handler *Handler) ExportData(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	export, err := handler.training.Export(profile)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	setExportAttachmentHeaders(c, buildExportFilename(export.ExportedAt))
	return c.JSON(export)
}
