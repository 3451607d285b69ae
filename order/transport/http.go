package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/order"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	os order.Service
}

func NewOrderHttp(os order.Service, r gin.IRouter) {
	h := &Http{
		os: os,
	}
	group := r.Group("/orders")
	{
		group.POST("", h.place())
		group.GET("/:id", h.get())
		group.PUT("/:id/status", h.updateStatus())
		group.POST("/:id/payments", h.recordPayment())
	}
	r.GET("/profiles/:id/orders", h.listFor())
}

func (h *Http) place() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload order.PlaceOrder
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		placed, err := h.os.PlaceFromCart(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, placed)
	}
}

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.os.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) listFor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		orders, err := h.os.ListFor(c.Request.Context(), id, transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, orders)
	}
}

func (h *Http) updateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload order.UpdateStatus
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		updated, err := h.os.UpdateStatus(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, updated)
	}
}

func (h *Http) recordPayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload order.RecordPayment
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		invoice, err := h.os.RecordPayment(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, invoice)
	}
}
