package api

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

func NewHandler(training TrainingBackend, secret string, logger logrus.FieldLogger) (*Handler, error) {
	if training == nil {
		return nil, errors.New("training service is required")
	}
	if secret == "" {
		return nil, errors.New("secret key is required")
	}
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}

	return &Handler{
		training:    training,
		secretKey:   []byte(secret),
		logger:      logger,
		authLimiter: newAttemptLimiter(authFailureLimit, authFailureWindow),
	}, nil
}
