package api

import (
	"errors"
	"net/http"

	"docuvault/scan-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) DocDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	docID := c.Param("id")
	if docID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No document ID provided",
			"requestID": requestID,
		})
		return
	}

	err := a.Docs.Delete(c.Request.Context(), userID, docID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Document not found. It either doesn't exist or you don't own it",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete document", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": docID,
	})
}
