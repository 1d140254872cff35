package middleware

import (
	"errors"
	"net/http"
	"strings"

	"docuvault/scan-api/model"
	"docuvault/scan-api/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewAuthMiddleware verifies the bearer token on every protected
// request and attaches the caller's identity as userID before any
// handler runs. Requests without a verified identity never reach a
// handler.
func NewAuthMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing bearer token",
				"requestID": requestID,
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Malformed Authorization header",
				"requestID": requestID,
			})
			return
		}

		userID, err := security.VerifyAuthToken(tokenStr)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Authorization token expired. Please log in again",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		// In case someone logs in, deletes their account and keeps
		// using the old token, we'll reject the request
		var user model.User
		err = d.Where("id = ?", userID).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Authorization token invalid",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
