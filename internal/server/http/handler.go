package http

import (
	"bytes"
	"net/http"

	"github.com/dmitrijs2005/notsy/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

func (s *Server) handlePing(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			s.logger.Warn(c.Request.Context(), "ping failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	c.String(http.StatusOK, "pong")
}

func (s *Server) handleList(completed *bool, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := s.notes.List(c.Request.Context(), completed)
		if err != nil {
			s.writeError(c, action, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	n, err := s.notes.Get(c.Request.Context(), id)
	s.respond(c, "retrieving note", n, err)
}

func (s *Server) handleCreate(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	n, err := s.notes.Create(c.Request.Context(), in)
	s.respond(c, "writing note", n, err)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	in, ok := bindInput(c)
	if !ok {
		return
	}
	n, err := s.notes.Update(c.Request.Context(), id, in)
	s.respond(c, "updating note", n, err)
}

// handleComplete reads only the completed field of the body. An absent
// field means false.
func (s *Server) handleComplete(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	in, ok := bindInput(c)
	if !ok {
		return
	}
	n, err := s.notes.Complete(c.Request.Context(), id, in.Completed != nil && *in.Completed)
	s.respond(c, "completing note", n, err)
}

func (s *Server) handleAttachImage(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	body := c.Request.Body
	if s.maxImageBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, s.maxImageBytes)
	}
	n, err := s.notes.AttachImage(c.Request.Context(), id, body, c.GetHeader("Content-Type"))
	s.respond(c, "uploading image", n, err)
}

func (s *Server) handleDetachImage(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	n, err := s.notes.DetachImage(c.Request.Context(), id)
	s.respond(c, "deleting image", n, err)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	n, err := s.notes.Delete(c.Request.Context(), id)
	s.respond(c, "deleting note", n, err)
}

func (s *Server) handleImage(c *gin.Context) {
	obj, ok := s.images.Get(c.Param("name"))
	if !ok {
		c.String(http.StatusNotFound, "Image not found")
		return
	}
	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Data(http.StatusOK, ct, obj.Data)
}

func (s *Server) respond(c *gin.Context, action string, n *models.Note, err error) {
	if err != nil {
		s.writeError(c, action, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// noteID parses the :id path parameter. Anything that is not a UUID can
// never name a stored note, so it is answered as not found.
func noteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, msgNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// bindInput decodes a NoteInput body. A literal null is rejected like any
// other malformed body.
func bindInput(c *gin.Context) (*models.NoteInput, bool) {
	raw, err := c.GetRawData()
	if err != nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}

	var in models.NoteInput
	if err := binding.JSON.BindBody(raw, &in); err != nil {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	return &in, true
}
