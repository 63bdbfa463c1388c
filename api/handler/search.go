package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novelbit/api/models"
	"novelbit/novelbit"
	"novelbit/rank"
)

// Search returns a handler for GET /api/attributes/search.
//
// Query: q (path text), keywords (comma separated), limit. At least one of
// q or keywords is required.
func Search(n *novelbit.Novelbit) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Query("q")
		keywords := rank.ParseKeywords(c.Query("keywords"))
		if q == "" && len(keywords) == 0 {
			invalid(c, "q or keywords is required")
			return
		}
		limit, ok := queryInt(c, "limit")
		if !ok {
			return
		}

		hits, err := n.Search(c.Request.Context(), novelbit.SearchQuery{Text: q, Keywords: keywords, Limit: limit})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewSearchResponse(hits))
	}
}
