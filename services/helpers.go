package services

import (
	"math"
	"net/http"

	"go.uber.org/zap"

	apperrors "readify/common/errors"
)

func notFound(what string) *apperrors.Error {
	return apperrors.New(http.StatusNotFound, what+" not found", nil)
}

func conflict(message string) *apperrors.Error {
	return apperrors.New(http.StatusConflict, message, nil)
}

func badRequest(message string) *apperrors.Error {
	return apperrors.New(http.StatusBadRequest, message, nil)
}

// internal logs the cause and returns the generic 500.
func internal(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	logger.Error(msg, append(fields, zap.Error(err))...)
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validationField(field, message string) *apperrors.Error {
	return apperrors.Validation(map[string]string{field: message})
}
