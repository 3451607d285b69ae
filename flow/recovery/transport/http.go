package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/flow/recovery"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

// linkSent is returned whether or not the email belongs to an account
const linkSent = "Check your email for a link to reset your password. If it doesn't appear within a few minutes, check your spam folder."

type Http struct {
	s recovery.Service
}

func NewRecoveryHttp(cfg config.Configuration, s recovery.Service, r gin.IRouter) {
	h := &Http{
		s: s,
	}
	group := r.Group("/" + cfg.Recovery.URL)
	{
		group.POST("", h.initFlow())
		group.GET("/:id", h.getFlow())
		group.POST("/:id", h.submitFlow())
	}
}

func (h *Http) initFlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload recovery.IdentifierPayload
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.s.New(c.Request.Context(), payload); err != nil {
			transport.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, transport.HttpResponse{
			Success: true,
			Message: linkSent,
		})
	}
}

func (h *Http) getFlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.s.Find(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) submitFlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload recovery.SubmitPayload
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		completed, err := h.s.Submit(c.Request.Context(), c.Param("id"), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, completed)
	}
}
