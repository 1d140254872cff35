package api

import (
	"errors"
	"net/http"
	"strings"

	"docuvault/scan-api/ocr"
	"docuvault/scan-api/service"
	"docuvault/scan-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) DocScan(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No scan file provided",
			"requestID": requestID,
		})
		return
	}

	code, f, err := validators.ScanValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate scan", zap.Error(err), zap.String("requestID", requestID))

			// That's to set the error into a general one for the users
			err = errors.New("internal server error")
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	f.Close()

	title := c.PostForm("title")

	doc, err := a.Scanner.Scan(c.Request.Context(), userID, title, fh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFile):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "No scan file provided",
				"requestID": requestID,
			})
		case errors.Is(err, ocr.ErrModelLoad):
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "OCR model unavailable. Please try again later",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrInference):
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Text recognition failed",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})
		}
		return
	}

	c.JSON(http.StatusOK, doc)
}
