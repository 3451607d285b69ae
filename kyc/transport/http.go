package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/kyc"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	ks kyc.Service
}

func NewKYCHttp(ks kyc.Service, r gin.IRouter) {
	h := &Http{
		ks: ks,
	}
	group := r.Group("/kyc")
	{
		group.POST("/document-types", h.createDocumentType())
		group.GET("/document-types", h.listDocumentTypes())
		group.POST("/documents", h.submit())
		group.POST("/documents/:id/review", h.review())
		group.GET("/documents/:id/attempts", h.attempts())
	}
	r.GET("/profiles/:id/kyc", h.list())
}

func (h *Http) createDocumentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload kyc.CreateDocumentType
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.ks.CreateDocumentType(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) listDocumentTypes() gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := h.ks.ListDocumentTypes(c.Request.Context())
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, types)
	}
}

func (h *Http) submit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload kyc.Submit
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		document, err := h.ks.Submit(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, document)
	}
}

func (h *Http) review() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload kyc.Review
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		document, err := h.ks.Review(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, document)
	}
}

func (h *Http) attempts() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		attempts, err := h.ks.Attempts(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, attempts)
	}
}

func (h *Http) list() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		documents, err := h.ks.List(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, documents)
	}
}
