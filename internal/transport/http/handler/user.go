package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-journal/internal/app"
	"travel-journal/internal/transport/http/middleware"
	"travel-journal/internal/transport/http/response"
)

type UserHandler struct {
	profileService *app.ProfileService
	maxBody        int64
	logger         *zap.SugaredLogger
}

func NewUserHandler(profileService *app.ProfileService, maxPictureBytes int64, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{
		profileService: profileService,
		maxBody:        2*maxPictureBytes + multipartOverhead,
		logger:         logger,
	}
}

// UpdateProfilePicture reads the "profilePicture" file of a multipart form.
func (h *UserHandler) UpdateProfilePicture(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	form, err := c.MultipartForm()
	if err != nil {
		writeFormError(c, err)
		return
	}

	files := form.File["profilePicture"]
	switch {
	case len(files) == 0:
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "profilePicture file is required")
		return
	case len(files) > 1:
		response.Error(c, http.StatusBadRequest, response.CodeTooManyAttachments, "only one profilePicture file is allowed")
		return
	}

	payloads, closeAll, err := openPayloads(files)
	defer closeAll()
	if err != nil {
		writeError(c, h.logger, err, "read uploaded picture failed")
		return
	}

	user, err := h.profileService.UpdateProfilePicture(c.Request.Context(), middleware.CurrentUserID(c), &payloads[0])
	if err != nil {
		writeError(c, h.logger, err, "update profile picture failed")
		return
	}
	response.OK(c, userPayload(user))
}
