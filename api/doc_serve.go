package api

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"docuvault/scan-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocServe streams the original scan bytes of a document back to its
// owner.
func (a *API) DocServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	docID := c.Param("id")

	var doc model.Document
	err := a.DB.
		Where("owner_id = ? AND id = ?", userID, docID).
		First(&doc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
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

		zap.L().Error("Failed to fetch document", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	f, err := a.Store.Get(c.Request.Context(), doc.FileKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch stored scan", zap.Error(err), zap.String("key", doc.FileKey))
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(doc.FileKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, -1, contentType, f, nil)
}
