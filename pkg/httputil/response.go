package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tojmed/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError sends an error response. Typed application errors
// carry their own status and offending field; anything else is a 500
// with the detail kept out of the body.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	field := ""

	if appErr, ok := err.(*errors.AppError); ok {
		status = appErr.StatusCode()
		if status != http.StatusInternalServerError {
			message = appErr.Message
			field = appErr.Field
		}
	}

	_ = c.Error(err)
	c.Abort()
	c.JSON(status, Response{
		Status:  "error",
		Message: message,
		Field:   field,
	})
}
