package transport

import (
	"net/http"
	"time"

	"github.com/RagOfJoes/bloom/token"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	ts token.Service
}

func NewTokenHttp(ts token.Service, r gin.IRouter) {
	h := &Http{
		ts: ts,
	}
	group := r.Group("/tokens")
	{
		group.POST("", h.issue())
		group.POST("/introspect", h.introspect())
		group.POST("/revoke", h.revoke())
	}
}

func (h *Http) issue() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload token.Issue
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		issued, value, err := h.ts.Issue(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, gin.H{
			"token":      value,
			"purpose":    issued.Purpose,
			"expires_at": issued.DeletedAt,
		})
	}
}

type valueRequest struct {
	Token string `json:"token" binding:"required"`
	// Grace keeps a revoked token around for this long, e.g. "5m"
	Grace string `json:"grace"`
}

func (h *Http) introspect() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload valueRequest
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.ts.Validate(c.Request.Context(), payload.Token)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) revoke() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload valueRequest
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		var grace time.Duration
		if payload.Grace != "" {
			parsed, err := time.ParseDuration(payload.Grace)
			if err != nil {
				transport.Fail(c, err)
				return
			}
			grace = parsed
		}
		if err := h.ts.Revoke(c.Request.Context(), payload.Token, grace); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
