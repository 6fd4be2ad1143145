package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/upf/internal/service"
)

const (
	uploadField = "file"

	// multipartOverhead is the slack allowed on top of max_upload_bytes
	// for multipart boundaries and part headers.
	multipartOverhead = 64 << 10
)

// readUpload validates the multipart upload before any conversion work.
// The returned closer releases the opened part.
func (s *Server) readUpload(c *gin.Context) (service.Upload, func(), error) {
	limit := s.cfg.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile(uploadField)
	if err != nil {
		switch {
		case isBodyTooLarge(err):
			return service.Upload{}, nil, tooLarge(fmt.Sprintf("upload exceeds %d bytes", limit))
		case errors.Is(err, http.ErrMissingFile):
			return service.Upload{}, nil, badRequest(`missing multipart field "file"`)
		default:
			return service.Upload{}, nil, badRequest("invalid multipart upload: " + err.Error())
		}
	}
	if fh.Size == 0 {
		return service.Upload{}, nil, badRequest("uploaded file is empty")
	}
	if !s.cfg.ExtensionAllowed(fh.Filename) {
		return service.Upload{}, nil, badRequest(fmt.Sprintf("file extension not allowed; accepted: %s",
			strings.Join(s.cfg.AllowedExtensions, " ")))
	}
	if fh.Size > limit {
		return service.Upload{}, nil, tooLarge(fmt.Sprintf("upload of %d bytes exceeds %d bytes", fh.Size, limit))
	}

	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, fmt.Errorf("opening upload: %w", err)
	}
	return service.Upload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}
