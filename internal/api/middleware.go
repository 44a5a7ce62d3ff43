package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	contextProfileKey = "current_profile"
	bearerPrefix      = "bearer "
)

func currentProfile(c *fiber.Ctx) (string, bool) {
	profile, ok := c.Locals(contextProfileKey).(string)
	return profile, ok && profile != ""
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
