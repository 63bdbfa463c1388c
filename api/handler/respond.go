package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"novelbit/api/models"
	"novelbit/fingerprint"
	"novelbit/novelbit"
	"novelbit/storage"
)

func invalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		OK:    false,
		Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: message},
	})
}

// respondError classifies err and writes the error body.
func respondError(c *gin.Context, err error) {
	apiErr := classify(err)
	c.JSON(mapErrorToStatus(apiErr), models.ErrorResponse{
		OK:    false,
		Error: apiErr.ToDetail(),
	})
}

func classify(err error) *models.APIError {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, novelbit.ErrNoStorage):
		return models.NewAPIError(models.ErrCodeStorageUnavailable, "storage unavailable", err)
	case errors.Is(err, novelbit.ErrEmptyPath),
		errors.Is(err, novelbit.ErrEmptyText),
		errors.Is(err, novelbit.ErrInvalidFingerprint),
		errors.Is(err, novelbit.ErrTooLong):
		return models.NewAPIError(models.ErrCodeInvalidInput, err.Error(), err)
	default:
		return models.NewAPIError(models.ErrCodeInternal, err.Error(), err)
	}
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.APIError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// queryBits reads a fingerprint from the bitMax and bitMin query parameters.
func queryBits(c *gin.Context, maxKey, minKey string) (fingerprint.Fingerprint, bool) {
	hi, err := strconv.ParseFloat(c.Query(maxKey), 64)
	if err != nil {
		invalid(c, maxKey+" must be a number")
		return fingerprint.Fingerprint{}, false
	}
	lo, err := strconv.ParseFloat(c.Query(minKey), 64)
	if err != nil {
		invalid(c, minKey+" must be a number")
		return fingerprint.Fingerprint{}, false
	}
	return fingerprint.Fingerprint{Max: hi, Min: lo}, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	s := c.Query(key)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		invalid(c, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
