package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/keaz/contacts-backend/internal/apperr"
)

// CorrelationIDKey is where the request-logging middleware stores the
// per-request correlation id in the gin context.
const CorrelationIDKey = "correlationID"

type ErrorEnvelope struct {
	StatusCode    int    `json:"statusCode"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

// RespondError maps the error onto the shared envelope. The status
// comes from the apperr taxonomy, the correlation id from the
// logging middleware.
func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	status := apperr.StatusOf(err)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		StatusCode:    status,
		Message:       msg,
		CorrelationID: c.GetString(CorrelationIDKey),
	})
}
