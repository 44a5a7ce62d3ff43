package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/flux/internal/models"
	"github.com/terraincognita07/flux/internal/services"
)

func (handler *Handler) Train(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input := trainInput{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if input.ModelType == "" {
		input.ModelType = c.Query("model_type", services.ModelTypeAuto)
	}

	params, err := handler.training.Train(profile, strings.ToLower(strings.TrimSpace(input.ModelType)))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(params)
}

func (handler *Handler) Predict(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	prediction, err := handler.training.Predict(profile)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(prediction)
}

func (handler *Handler) ExportModel(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	params, err := handler.training.ExportParams(profile)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(params)
}

func (handler *Handler) LoadModel(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	params := models.ModelParams{}
	if err := c.BodyParser(&params); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid model parameters")
	}

	loaded, err := handler.training.LoadParams(profile, params)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(loaded)
}
