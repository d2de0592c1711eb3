package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/notsy/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgNotFound      = "Note not found"
	msgInvalidBody   = "Invalid body"
	msgImageTooLarge = "Image too large"

	// statusClientClosedRequest is the nginx convention for a request whose
	// client went away before the response was written.
	statusClientClosedRequest = 499
)

// writeError maps a service error to a status code and body. Validation and
// not-found answers are plain text; server-side failures are JSON strings.
func (s *Server) writeError(c *gin.Context, action string, err error) {
	ctx := c.Request.Context()

	var ve *common.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		c.String(http.StatusBadRequest, msgImageTooLarge)
	case errors.As(err, &ve):
		c.String(http.StatusBadRequest, ve.Msg)
	case errors.Is(err, common.ErrorValidation):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		c.String(http.StatusNotFound, msgNotFound)
	case errors.Is(err, context.Canceled):
		s.logger.Info(ctx, "request canceled", "action", action)
		c.Status(statusClientClosedRequest)
	default:
		s.logger.Error(ctx, "request failed", "action", action, "error", err)
		c.JSON(http.StatusInternalServerError, fmt.Sprintf("An error occurred while %s: %s", action, errorDetail(err)))
	}
}

func errorDetail(err error) string {
	var se *common.StoreError
	if errors.As(err, &se) {
		return se.Detail()
	}
	return err.Error()
}
