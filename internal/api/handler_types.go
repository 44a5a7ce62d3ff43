package api

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/flux/internal/models"
	"github.com/terraincognita07/flux/internal/services"
)

// TrainingBackend is the part of services.TrainingService the HTTP surface
// depends on.
type TrainingBackend interface {
	Import(profile string, sourceName string, raw map[string]any, format string) (services.ImportResult, error)
	Cycles(profile string) ([]models.Cycle, error)
	Features(profile string) (services.FeatureReport, error)
	Train(profile string, modelType string) (models.ModelParams, error)
	Predict(profile string) (models.Prediction, error)
	ExportParams(profile string) (models.ModelParams, error)
	LoadParams(profile string, params models.ModelParams) (models.ModelParams, error)
	Export(profile string) (models.AppExport, error)
}

type Handler struct {
	training    TrainingBackend
	secretKey   []byte
	logger      logrus.FieldLogger
	authLimiter *attemptLimiter
}

type trainInput struct {
	ModelType string `json:"model_type" query:"model_type"`
}

type authClaims struct {
	jwt.RegisteredClaims
}
