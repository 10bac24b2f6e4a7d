package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keaz/contacts-backend/internal/handlers"
	"github.com/keaz/contacts-backend/internal/logger"
)

type RequestLogger struct {
	log *logger.Logger
}

func NewRequestLogger(log *logger.Logger) *RequestLogger {
	middlewareLog := log.With("middleware", "RequestLogger")
	return &RequestLogger{log: middlewareLog}
}

// Handle assigns each request a correlation id, logs the outcome and
// converts panics into the shared error envelope. Full error context
// stays server-side, the client only ever sees the envelope.
func (rl *RequestLogger) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := uuid.New().String()
		c.Set(handlers.CorrelationIDKey, correlationID)
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				rl.log.Error("Panic recovered",
					"correlationID", correlationID,
					"method", c.Request.Method,
					"url", c.Request.URL.String(),
					"panic", r,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorEnvelope{
					StatusCode:    http.StatusInternalServerError,
					Message:       "internal server error",
					CorrelationID: correlationID,
				})
			}
		}()

		c.Next()

		rl.log.Info("Request handled",
			"correlationID", correlationID,
			"method", c.Request.Method,
			"url", c.Request.URL.String(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
