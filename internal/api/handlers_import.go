package api

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/flux/internal/ingest"
)

const defaultUploadName = "upload.json"

// Import accepts an export either as a multipart "file" field or as the raw
// JSON request body. The "format" query parameter selects auto, flo or app.
func (handler *Handler) Import(c *fiber.Ctx) error {
	profile, ok := currentProfile(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	raw, sourceName, err := readUploadedExport(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format", ingest.FormatAuto)))
	result, err := handler.training.Import(profile, sourceName, raw, format)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func readUploadedExport(c *fiber.Ctx) (map[string]any, string, error) {
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, "", fiberBadRequest("file field is required")
		}
		if err := ingest.CheckFileName(fileHeader.Filename); err != nil {
			return nil, "", err
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, "", fiberBadRequest("uploaded file could not be read")
		}
		defer file.Close()

		raw, err := ingest.Decode(file)
		return raw, fileHeader.Filename, err
	}

	sourceName := strings.TrimSpace(c.Query("filename", defaultUploadName))
	if err := ingest.CheckFileName(sourceName); err != nil {
		return nil, "", err
	}
	raw, err := ingest.Decode(bytes.NewReader(c.Body()))
	return raw, sourceName, err
}

func fiberBadRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}
