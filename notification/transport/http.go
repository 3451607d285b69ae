package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/notification"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	ns notification.Service
}

func NewNotificationHttp(ns notification.Service, r gin.IRouter) {
	h := &Http{
		ns: ns,
	}
	r.POST("/notifications", h.notify())
	group := r.Group("/profiles/:id/notifications")
	{
		group.GET("", h.list())
		group.GET("/unread", h.unread())
		group.POST("/:notification_id/read", h.markRead())
		group.GET("/preference", h.preference())
		group.PATCH("/preference", h.updatePreference())
	}
}

func (h *Http) notify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload notification.Notify
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.ns.Notify(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) list() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.ns.List(c.Request.Context(), id, c.Query("unread") == "true", transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) unread() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		count, err := h.ns.CountUnread(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, gin.H{"unread": count})
	}
}

func (h *Http) markRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		notificationID, err := transport.ParamID(c, "notification_id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		updated, err := h.ns.MarkRead(c.Request.Context(), id, notificationID)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, updated)
	}
}

func (h *Http) preference() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.ns.Preference(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) updatePreference() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload notification.UpdatePreference
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		updated, err := h.ns.UpdatePreference(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, updated)
	}
}
