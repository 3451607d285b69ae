package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/transport"
	"github.com/RagOfJoes/bloom/wishlist"
	"github.com/gin-gonic/gin"
)

type Http struct {
	ws wishlist.Service
}

func NewWishlistHttp(ws wishlist.Service, r gin.IRouter) {
	h := &Http{
		ws: ws,
	}
	group := r.Group("/wishlists")
	{
		group.POST("", h.create())
		group.GET("/:id", h.get())
		group.POST("/:id/items", h.addItem())
		group.DELETE("/:id/items/:item_id", h.removeItem())
	}
	r.GET("/profiles/:id/wishlists", h.listFor())
	r.GET("/profiles/:id/wishlists/default", h.getDefault())
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload wishlist.Create
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.ws.Create(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.ws.Get(c.Request.Context(), c.Param("id"))
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
		found, err := h.ws.ListFor(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

// getDefault creates the default wishlist on first read
func (h *Http) getDefault() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.ws.GetOrCreateDefault(c.Request.Context(), id)
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
		var payload wishlist.AddItem
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		item, err := h.ws.AddItem(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, item)
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
		if err := h.ws.RemoveItem(c.Request.Context(), id, itemID); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
