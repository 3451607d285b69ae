package transport

import (
	"context"
	"net/http"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

// Sessions binds authenticated accounts to the cookie session
type Sessions interface {
	SignIn(ctx context.Context, accountID uuid.UUID) error
	SignOut(ctx context.Context) error
}

type Http struct {
	as       account.Service
	sessions Sessions
}

func NewAccountHttp(as account.Service, sessions Sessions, r gin.IRouter) {
	h := &Http{
		as:       as,
		sessions: sessions,
	}
	group := r.Group("/accounts")
	{
		group.POST("", h.create())
		group.GET("/:id", h.get())
		group.PATCH("/:id", h.update())
		group.DELETE("/:id", h.delete())
		group.POST("/:id/types", h.assignType())
		group.GET("/:id/types", h.listInfos())
	}
	r.POST("/account-types", h.createType())
	r.POST("/sessions", h.authenticate())
	r.DELETE("/sessions", h.signOut())
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload account.CreateAccount
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

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.as.Find(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) update() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload account.UpdateAccount
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		updated, err := h.as.Update(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, updated)
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

func (h *Http) assignType() gin.HandlerFunc {
	type request struct {
		Key        string     `json:"key" binding:"required"`
		AssignedBy *uuid.UUID `json:"assigned_by"`
	}
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload request
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		info, err := h.as.AssignType(c.Request.Context(), id, payload.Key, payload.AssignedBy)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, info)
	}
}

func (h *Http) listInfos() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		infos, err := h.as.ListInfos(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, infos)
	}
}

func (h *Http) createType() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload account.CreateAccountType
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.as.CreateType(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) authenticate() gin.HandlerFunc {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var payload request
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.as.Authenticate(c.Request.Context(), payload.Email, payload.Password)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.sessions.SignIn(c.Request.Context(), found.ID); err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) signOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.sessions.SignOut(c.Request.Context()); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
