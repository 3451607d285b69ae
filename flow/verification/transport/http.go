package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/flow/verification"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	s verification.Service
}

func NewVerificationHttp(cfg config.Configuration, s verification.Service, r gin.IRouter) {
	h := &Http{
		s: s,
	}
	group := r.Group("/" + cfg.Verification.URL)
	{
		group.POST("", h.initFlow())
		group.POST("/:id", h.verify())
	}
}

// initFlow sends a link to the signed in account
func (h *Http) initFlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := persistence.ActorFrom(c.Request.Context())
		if actor.AccountID == nil {
			transport.Fail(c, internal.NewErrorf(internal.ErrorCodeUnauthorized, "You must be signed in to verify your account"))
			return
		}
		newFlow, err := h.s.New(c.Request.Context(), *actor.AccountID)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, newFlow)
	}
}

func (h *Http) verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		completed, err := h.s.Verify(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, completed)
	}
}
