package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/audit"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	as audit.Service
}

func NewAuditHttp(as audit.Service, r gin.IRouter) {
	h := &Http{
		as: as,
	}
	r.GET("/audit/:resource_type/:resource_id", h.history())
}

func (h *Http) history() gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := h.as.History(c.Request.Context(), c.Param("resource_type"), c.Param("resource_id"), transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, logs)
	}
}
