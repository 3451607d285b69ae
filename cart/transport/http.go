package transport

import (
	"context"
	"net/http"

	"github.com/RagOfJoes/bloom/cart"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

// Guests identifies anonymous visitors
type Guests interface {
	GuestID(ctx context.Context) (string, error)
}

type Http struct {
	cs     cart.Service
	guests Guests
}

func NewCartHttp(cs cart.Service, guests Guests, r gin.IRouter) {
	h := &Http{
		cs:     cs,
		guests: guests,
	}
	group := r.Group("/carts")
	{
		group.POST("", h.create())
		group.GET("/current", h.current())
		group.POST("/merge", h.merge())
		group.GET("/:id", h.get())
		group.POST("/:id/items", h.addItem())
		group.DELETE("/:id/items", h.clear())
		group.PATCH("/:id/items/:item_id", h.updateItem())
		group.DELETE("/:id/items/:item_id", h.removeItem())
	}
}

type ownerRequest struct {
	AccountTypeInfoID *uuid.UUID `json:"account_type_info_id"`
}

// owner resolves the cart owner of a request. Requests that don't name a
// profile get the guest session
func (h *Http) owner(c *gin.Context) (cart.Owner, error) {
	var payload ownerRequest
	if c.Request.ContentLength > 0 {
		if err := transport.Bind(c, &payload); err != nil {
			return cart.Owner{}, err
		}
	}
	if payload.AccountTypeInfoID != nil {
		return cart.Owner{AccountTypeInfoID: payload.AccountTypeInfoID}, nil
	}
	guest, err := h.guests.GuestID(c.Request.Context())
	if err != nil {
		return cart.Owner{}, err
	}
	return cart.Owner{SessionID: &guest}, nil
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := h.owner(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.cs.Create(c.Request.Context(), owner)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) current() gin.HandlerFunc {
	return func(c *gin.Context) {
		guest, err := h.guests.GuestID(c.Request.Context())
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.cs.GetOrCreate(c.Request.Context(), cart.Owner{SessionID: &guest})
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) merge() gin.HandlerFunc {
	type request struct {
		AccountTypeInfoID uuid.UUID `json:"account_type_info_id" binding:"required"`
	}
	return func(c *gin.Context) {
		var payload request
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		guest, err := h.guests.GuestID(c.Request.Context())
		if err != nil {
			transport.Fail(c, err)
			return
		}
		merged, err := h.cs.Merge(c.Request.Context(), guest, payload.AccountTypeInfoID)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, merged)
	}
}

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.cs.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) addItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload cart.AddItem
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		item, err := h.cs.AddItem(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, item)
	}
}

func (h *Http) updateItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		itemID, err := transport.ParamID(c, "item_id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload cart.UpdateItem
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		item, err := h.cs.UpdateItem(c.Request.Context(), id, itemID, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, item)
	}
}

func (h *Http) removeItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		itemID, err := transport.ParamID(c, "item_id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.cs.RemoveItem(c.Request.Context(), id, itemID); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *Http) clear() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.cs.Clear(c.Request.Context(), id); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
