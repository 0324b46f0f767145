package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-journal/internal/app"
	"travel-journal/internal/media"
	"travel-journal/internal/transport/http/middleware"
	"travel-journal/internal/transport/http/response"
)

// multipartOverhead covers form fields and part headers on top of the files.
const multipartOverhead = 1 << 20

type EntryHandler struct {
	entryService *app.EntryService
	maxBody      int64
	logger       *zap.SugaredLogger
}

// NewEntryHandler caps create requests at maxFiles images of maxFileBytes
// each plus form overhead.
func NewEntryHandler(entryService *app.EntryService, maxFileBytes int64, maxFiles int, logger *zap.SugaredLogger) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		maxBody:      maxFileBytes*int64(maxFiles+1) + multipartOverhead,
		logger:       logger,
	}
}

func (h *EntryHandler) List(c *gin.Context) {
	entries, err := h.entryService.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "list entries failed")
		return
	}
	response.OK(c, entries)
}

func (h *EntryHandler) Liked(c *gin.Context) {
	entries, err := h.entryService.ListLiked(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "list liked entries failed")
		return
	}
	response.OK(c, entries)
}

func (h *EntryHandler) Get(c *gin.Context) {
	entry, err := h.entryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, "fetch entry failed")
		return
	}
	response.OK(c, entry)
}

// Create reads a multipart form with title, location, date, description and
// up to three "images" files.
func (h *EntryHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	form, err := c.MultipartForm()
	if err != nil {
		writeFormError(c, err)
		return
	}

	payloads, closeAll, err := openPayloads(form.File["images"])
	defer closeAll()
	if err != nil {
		writeError(c, h.logger, err, "read uploaded images failed")
		return
	}

	entry, err := h.entryService.Create(c.Request.Context(), middleware.CurrentUserID(c), app.CreateEntryInput{
		Title:       c.PostForm("title"),
		Location:    c.PostForm("location"),
		Date:        c.PostForm("date"),
		Description: c.PostForm("description"),
		Images:      payloads,
	})
	if err != nil {
		writeError(c, h.logger, err, "create entry failed")
		return
	}
	response.Created(c, entry)
}

func (h *EntryHandler) ToggleLike(c *gin.Context) {
	entry, err := h.entryService.ToggleLike(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "toggle like failed")
		return
	}
	response.OK(c, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	if err := h.entryService.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		writeError(c, h.logger, err, "delete entry failed")
		return
	}
	response.OK(c, gin.H{"id": c.Param("id")})
}

func openPayloads(files []*multipart.FileHeader) ([]media.Payload, func(), error) {
	opened := make([]multipart.File, 0, len(files))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	payloads := make([]media.Payload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %s failed: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		payloads = append(payloads, media.Payload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		})
	}
	return payloads, closeAll, nil
}

func writeFormError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "request body too large")
		return
	}
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
}
