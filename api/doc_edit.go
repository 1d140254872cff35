package api

import (
	"errors"
	"net/http"

	"docuvault/scan-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) DocEdit(c *gin.Context) {
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

	var patch service.DocumentPatch
	if err := c.BindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})

		zap.L().Debug("Failed to read JSON body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if patch.Empty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No edit options provided",
			"requestID": requestID,
		})
		return
	}

	doc, err := a.Docs.Update(userID, docID, patch)
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

		zap.L().Error("Failed to update document", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, doc)
}
