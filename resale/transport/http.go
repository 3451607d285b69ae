package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/resale"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

type Http struct {
	rs resale.Service
}

func NewResaleHttp(rs resale.Service, r gin.IRouter) {
	h := &Http{
		rs: rs,
	}
	group := r.Group("/product-item-requests")
	{
		group.GET("", h.list())
		group.POST("", h.create())
		group.GET("/:id", h.get())
		group.POST("/:id/decision", h.decide())
		group.DELETE("/:id", h.withdraw())
	}
}

// optionalID reads a uuid query parameter that may be absent
func optionalID(c *gin.Context, name string) (*uuid.UUID, error) {
	if c.Query(name) == "" {
		return nil, nil
	}
	id, err := transport.QueryID(c, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *Http) list() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			filter resale.Filter
			err    error
		)
		if filter.SellerAccountTypeInfoID, err = optionalID(c, "seller_account_type_info_id"); err != nil {
			transport.Fail(c, err)
			return
		}
		if filter.SupplierAccountID, err = optionalID(c, "supplier_account_id"); err != nil {
			transport.Fail(c, err)
			return
		}
		if filter.ProductID, err = optionalID(c, "product_id"); err != nil {
			transport.Fail(c, err)
			return
		}
		if raw := c.Query("status"); raw != "" {
			status := resale.Status(raw)
			filter.Status = &status
		}
		found, err := h.rs.List(c.Request.Context(), filter, transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload resale.CreateRequest
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

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.rs.Get(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) decide() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload resale.Decide
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		decided, err := h.rs.Decide(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, decided)
	}
}

func (h *Http) withdraw() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		sellerID, err := transport.QueryID(c, "seller_account_type_info_id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.rs.Withdraw(c.Request.Context(), id, sellerID); err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, nil)
	}
}
