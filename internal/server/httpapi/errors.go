package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps service errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect email or password"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, common.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, common.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "Model not loaded"
	case errors.Is(err, common.ErrStorageUnavailable):
		return http.StatusInternalServerError, "Failed to store image"
	case errors.Is(err, common.ErrClassificationFailed):
		return http.StatusInternalServerError, "Failed to analyze image"
	case errors.Is(err, common.ErrPersistenceFailed):
		return http.StatusInternalServerError, "Failed to save analysis"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", common.BearerScheme)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}
