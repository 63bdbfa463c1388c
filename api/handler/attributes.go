package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novelbit/api/models"
	"novelbit/fingerprint"
	"novelbit/novelbit"
)

// ListAttributes returns a handler for GET /api/attributes/all.
func ListAttributes(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		attrs, err := n.ListAttributes(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]models.Bits, 0, len(attrs))
		for _, a := range attrs {
			out = append(out, models.NewBits(a.Text, a.Fingerprint))
		}
		c.JSON(http.StatusOK, models.AttributesResponse{OK: true, Count: len(out), Attributes: out})
	}
}

// ListData returns a handler for GET /api/attributes/data.
//
// Query: bitMax, bitMin (required), limit (default 100, max 1000),
// attributeText (optional substring filter on the attribute path).
func ListData(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		fp, ok := queryBits(c, "bitMax", "bitMin")
		if !ok {
			return
		}
		limit, ok := queryInt(c, "limit")
		if !ok {
			return
		}
		items, err := n.ListDataMatching(c.Request.Context(), fp, c.Query("attributeText"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]models.DataItem, 0, len(items))
		for _, it := range items {
			out = append(out, models.NewDataItem(it))
		}
		c.JSON(http.StatusOK, models.DataListResponse{OK: true, Count: len(out), Items: out})
	}
}

// SaveData returns a handler for POST /api/attributes/data.
func SaveData(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SaveDataRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err.Error())
			return
		}
		res, err := n.Save(c.Request.Context(), novelbit.SaveInput{
			AttributeText:        req.AttributeText,
			AttributeFingerprint: fingerprint.Fingerprint{Max: *req.AttributeBitMax, Min: *req.AttributeBitMin},
			Text:                 req.Text,
			DataFingerprint:      fingerprint.Fingerprint{Max: *req.DataBitMax, Min: *req.DataBitMin},
			Metadata:             req.Metadata,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SaveDataResponse{OK: true, Duplicate: res.Duplicate, Record: models.NewDataItem(res.Item)})
	}
}

// Autosave returns a handler for POST /api/attributes/autosave. The save
// runs in the background; 503 means the queue was full.
func Autosave(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AutosaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err.Error())
			return
		}
		for _, text := range []string{req.AttributeText, req.Text} {
			if err := n.CheckLength(text); err != nil {
				respondError(c, err)
				return
			}
		}
		if !n.Autosave.Enqueue(novelbit.AutosaveInput{
			AttributePath: req.AttributeText,
			Text:          req.Text,
			Metadata:      req.Metadata,
		}) {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				OK:    false,
				Error: &models.ErrorDetail{Code: models.ErrCodeQueueFull, Message: "autosave queue is full"},
			})
			return
		}
		c.JSON(http.StatusAccepted, models.AutosaveResponse{OK: true, Queued: true})
	}
}

// DeleteData returns a handler for POST /api/attributes/data/delete.
//
// A request that matches nothing is a success with deletedCount 0.
func DeleteData(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DeleteDataRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err.Error())
			return
		}
		attrFp := fingerprint.Fingerprint{Max: *req.AttributeBitMax, Min: *req.AttributeBitMin}
		dataFp := fingerprint.Fingerprint{Max: *req.DataBitMax, Min: *req.DataBitMin}
		var (
			count int
			err   error
		)
		if req.AttributeText != "" {
			count, err = n.DeleteDataPath(c.Request.Context(), req.AttributeText, attrFp, dataFp)
		} else {
			count, err = n.DeleteData(c.Request.Context(), attrFp, dataFp)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.DeleteResponse{OK: true, DeletedCount: count})
	}
}

// DeleteAttribute returns a handler for POST /api/attributes/delete.
func DeleteAttribute(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DeleteAttributeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, err.Error())
			return
		}

		var (
			res novelbit.DeleteResult
			err error
		)
		hasBits := req.AttributeBitMax != nil && req.AttributeBitMin != nil
		switch {
		case hasBits && req.AttributeText != "":
			res, err = n.DeleteAttributePath(c.Request.Context(), req.AttributeText,
				fingerprint.Fingerprint{Max: *req.AttributeBitMax, Min: *req.AttributeBitMin})
		case hasBits:
			res, err = n.DeleteAttribute(c.Request.Context(),
				fingerprint.Fingerprint{Max: *req.AttributeBitMax, Min: *req.AttributeBitMin})
		case req.AttributeBitMax == nil && req.AttributeBitMin == nil && req.AttributeText != "":
			res, err = n.DeleteAttributeText(c.Request.Context(), req.AttributeText)
		default:
			invalid(c, "attributeBitMax and attributeBitMin, or attributeText, are required")
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewDeleteResponse(res))
	}
}

// Verify returns a handler for GET /api/attributes/verify?bitMax&bitMin&text.
func Verify(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		fp, ok := queryBits(c, "bitMax", "bitMin")
		if !ok {
			return
		}
		text := c.Query("text")
		if text == "" {
			invalid(c, "text is required")
			return
		}
		exists, err := n.Verify(c.Request.Context(), fp, text)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.VerifyResponse{OK: true, Exists: exists})
	}
}
