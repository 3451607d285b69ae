package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/address"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

type Http struct {
	as address.Service
}

func NewAddressHttp(as address.Service, r gin.IRouter) {
	h := &Http{
		as: as,
	}
	group := r.Group("/addresses")
	{
		group.POST("", h.create())
		group.GET("", h.list())
		group.DELETE("/:id", h.delete())
	}
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload address.CreateAddress
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.as.Create(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) list() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.FromString(c.Query("addressable_id"))
		if err != nil {
			transport.Fail(c, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "addressable_id must be a valid UUID"))
			return
		}
		owner, err := record.Addressable.Ref(c.Query("addressable_type"), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		addresses, err := h.as.ListFor(c.Request.Context(), owner)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, addresses)
	}
}

func (h *Http) delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.as.Delete(c.Request.Context(), id); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
