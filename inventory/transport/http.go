package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	is inventory.Service
}

func NewInventoryHttp(is inventory.Service, r gin.IRouter) {
	h := &Http{
		is: is,
	}
	group := r.Group("/inventories/:type/:id")
	{
		group.GET("", h.get())
		group.GET("/actions", h.actions())
		group.POST("/actions", h.applyAction())
		group.POST("/reservations", h.reserve())
		group.DELETE("/reservations", h.release())
		group.PUT("/reorder-level", h.setReorderLevel())
	}
}

func target(c *gin.Context) (record.Ref, error) {
	id, err := transport.ParamID(c, "id")
	if err != nil {
		return record.Ref{}, err
	}
	return record.Inventoriable.Ref(c.Param("type"), id)
}

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.is.Get(c.Request.Context(), ref)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, gin.H{
			"inventory": found,
			"available": found.Available(),
		})
	}
}

func (h *Http) applyAction() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload inventory.ApplyAction
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		inv, action, err := h.is.ApplyAction(c.Request.Context(), ref, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, gin.H{
			"inventory": inv,
			"action":    action,
			"available": inv.Available(),
		})
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *Http) reserve() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload quantityRequest
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		inv, err := h.is.Reserve(c.Request.Context(), ref, payload.Quantity)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, inv)
	}
}

func (h *Http) release() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload quantityRequest
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		inv, err := h.is.Release(c.Request.Context(), ref, payload.Quantity)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, inv)
	}
}

func (h *Http) setReorderLevel() gin.HandlerFunc {
	type request struct {
		Level int `json:"level"`
	}
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload request
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		inv, err := h.is.SetReorderLevel(c.Request.Context(), ref, payload.Level)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, inv)
	}
}

func (h *Http) actions() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		inv, err := h.is.Get(c.Request.Context(), ref)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var actionType *inventory.ActionType
		if raw := c.Query("action_type"); raw != "" {
			t := inventory.ActionType(raw)
			actionType = &t
		}
		actions, err := h.is.Actions(c.Request.Context(), inv.ID, actionType, transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, actions)
	}
}
