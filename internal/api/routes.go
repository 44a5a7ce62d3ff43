package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	v1 := app.Group("/api/v1", handler.AuthRequired)
	v1.Post("/import", handler.Import)
	v1.Get("/cycles", handler.ListCycles)
	v1.Get("/features", handler.ShowFeatures)
	v1.Post("/train", handler.Train)
	v1.Get("/predict", handler.Predict)
	v1.Get("/model", handler.ExportModel)
	v1.Put("/model", handler.LoadModel)
	v1.Get("/export", handler.ExportData)
}
