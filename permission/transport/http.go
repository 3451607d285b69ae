package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/permission"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	ps permission.Service
}

func NewPermissionHttp(ps permission.Service, r gin.IRouter) {
	h := &Http{
		ps: ps,
	}
	r.POST("/permissions", h.create())
	r.GET("/permissions", h.listPermissions())
	group := r.Group("/profiles/:id/permissions")
	{
		group.GET("", h.list())
		group.POST("", h.grant())
		group.POST("/defaults", h.defaults())
		group.GET("/check", h.check())
		group.DELETE("/:permission_id", h.revoke())
	}
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload permission.CreatePermission
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.ps.CreatePermission(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) listPermissions() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.ps.ListPermissions(c.Request.Context(), transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) list() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.ps.List(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) grant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload permission.GrantPermission
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		granted, err := h.ps.Grant(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, granted)
	}
}

func (h *Http) defaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		granted, err := h.ps.AssignDefaults(c.Request.Context(), id, nil)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, granted)
	}
}

func (h *Http) check() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		scope := c.Query("scope")
		allowed, err := h.ps.Can(c.Request.Context(), id, scope, c.Query("resource_id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, gin.H{"scope": scope, "allowed": allowed})
	}
}

func (h *Http) revoke() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		permissionID, err := transport.ParamID(c, "permission_id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		revoked, err := h.ps.Revoke(c.Request.Context(), id, permissionID, c.Query("resource_id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, gin.H{"revoked": revoked})
	}
}
