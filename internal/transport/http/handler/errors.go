package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-journal/internal/app"
	"travel-journal/internal/transport/http/middleware"
	"travel-journal/internal/transport/http/response"
)

type errorMapping struct {
	target error
	status int
	code   int
}

var errorMappings = []errorMapping{
	{app.ErrInvalidInput, http.StatusBadRequest, response.CodeBadRequest},
	{app.ErrEmailExists, http.StatusBadRequest, response.CodeEmailExists},
	{app.ErrTooManyAttachments, http.StatusBadRequest, response.CodeTooManyAttachments},
	{app.ErrUnauthenticated, http.StatusUnauthorized, response.CodeUnauthorized},
	{app.ErrInvalidCredential, http.StatusUnauthorized, response.CodeInvalidCredentials},
	{app.ErrForbidden, http.StatusForbidden, response.CodeForbidden},
	{app.ErrEntryNotFound, http.StatusNotFound, response.CodeEntryNotFound},
	{app.ErrUserNotFound, http.StatusNotFound, response.CodeUserNotFound},
	{app.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge},
	{app.ErrInvalidMediaType, http.StatusUnsupportedMediaType, response.CodeInvalidMediaType},
}

// writeError maps a service error onto the response envelope. Unmapped errors
// are logged and reported as fallback without their cause.
func writeError(c *gin.Context, logger *zap.SugaredLogger, err error, fallback string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			response.Error(c, m.status, m.code, err.Error())
			return
		}
	}
	logError(logger, c, err, fallback)
	response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
}

func logError(logger *zap.SugaredLogger, c *gin.Context, err error, msg string, fields ...interface{}) {
	if logger == nil {
		return
	}
	base := []interface{}{
		"request_id", c.GetString(middleware.ContextRequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_id", middleware.CurrentUserID(c),
		"error", err,
	}
	logger.Errorw(msg, append(base, fields...)...)
}
