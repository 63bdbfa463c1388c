package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novelbit/api/models"
	"novelbit/novelbit"
)

// Fingerprint returns a handler for POST /api/fingerprint.
//
// Empty text is accepted and yields the degenerate fingerprint.
func Fingerprint(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FingerprintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err.Error())
			return
		}
		res, err := n.Fingerprint(c.Request.Context(), req.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewFingerprintResponse(res))
	}
}

// FingerprintBatch returns a handler for POST /api/fingerprint/batch.
func FingerprintBatch(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FingerprintBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err.Error())
			return
		}
		results, err := n.FingerprintTexts(c.Request.Context(), req.Texts)
		if err != nil {
			respondError(c, err)
			return
		}
		out := models.FingerprintBatchResponse{OK: true, Results: make([]models.FingerprintResponse, 0, len(results))}
		for _, res := range results {
			out.Results = append(out.Results, models.NewFingerprintResponse(res))
		}
		c.JSON(http.StatusOK, out)
	}
}
