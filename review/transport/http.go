package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/review"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	rs review.Service
}

func NewReviewHttp(rs review.Service, r gin.IRouter) {
	h := &Http{
		rs: rs,
	}
	group := r.Group("/reviews")
	{
		group.POST("", h.create())
		group.GET("", h.list())
		group.GET("/summary", h.summary())
		group.DELETE("/:id", h.delete())
	}
}

func target(c *gin.Context) (record.Ref, error) {
	id, err := transport.QueryID(c, "reviewable_id")
	if err != nil {
		return record.Ref{}, err
	}
	return record.Reviewable.Ref(c.Query("reviewable_type"), id)
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload review.Create
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.rs.Create(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) list() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		reviews, err := h.rs.ListFor(c.Request.Context(), ref, transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, reviews)
	}
}

func (h *Http) summary() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, err := target(c)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		summary, err := h.rs.Summarize(c.Request.Context(), ref)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, summary)
	}
}

func (h *Http) delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.rs.Delete(c.Request.Context(), id); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
