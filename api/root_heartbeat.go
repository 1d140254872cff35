package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers 200 with no body so load balancers and uptime
// probes can check liveness without touching the database or the OCR
// model.
func (a *API) Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
