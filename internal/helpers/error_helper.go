package helpers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkgate/parkgate/internal/apperrors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithAppError maps a typed domain error onto the wire. Unexpected
// store failures are logged and surfaced as a generic internal error.
func RespondWithAppError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		Error:   http.StatusText(appErr.HTTPStatus),
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}
