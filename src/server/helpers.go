package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"market-sync/src/helpers"
	"market-sync/src/models"
	"market-sync/src/router"
	"market-sync/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// respond writes a strategy answer, or the flattened {error} shape. The full
// error only goes to the log.
func (s *APIServer) respond(c *gin.Context, endpoint string, resp *router.Response, err error) {
	if err != nil {
		status := helpers.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.Logger.Error("%s failed: %v", endpoint, err)
		} else {
			s.Logger.Debug("%s rejected: %v", endpoint, err)
		}
		c.JSON(status, models.MErrorBody{Error: helpers.PublicMessage(err)})
		return
	}

	c.JSON(resp.Status, resp.Body)
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Next()
}

// -----------------------------------------------------------------------------

func (s *APIServer) cors() gin.HandlerFunc {
	allowAll := contains(s.Config.CorsOrigins, "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowAll || contains(s.Config.CorsOrigins, origin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d in %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(started))
	}
}

// -----------------------------------------------------------------------------
// Query parsing
// -----------------------------------------------------------------------------

// parseLimit returns 0 (the default) for missing or non-numeric values.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func parseSymbols(raw string) []string {
	return utils.SplitSymbols(raw)
}

func formatNow(now func() time.Time) string {
	return utils.FormatISO(now())
}

// -----------------------------------------------------------------------------

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
