package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

type Http struct {
	cs catalog.Service
}

func NewCatalogHttp(cs catalog.Service, r gin.IRouter) {
	h := &Http{
		cs: cs,
	}
	categories := r.Group("/categories")
	{
		categories.GET("", h.listCategories())
		categories.POST("", h.createCategory())
		categories.GET("/:id", h.getCategory())
	}
	products := r.Group("/products")
	{
		products.GET("", h.searchProducts())
		products.POST("", h.createProduct())
		products.GET("/:id", h.getProduct())
		products.PATCH("/:id", h.updateProduct())
		products.DELETE("/:id", h.deleteProduct())
	}
	items := r.Group("/product-items")
	{
		items.POST("", h.createProductItem())
		items.GET("/:id", h.getProductItem())
	}
}

func (h *Http) listCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := h.cs.ListCategoryTree(c.Request.Context())
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, tree)
	}
}

func (h *Http) createCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload catalog.CreateCategory
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.cs.CreateCategory(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) getCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.cs.GetCategory(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) searchProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := catalog.ProductFilter{
			Query: c.Query("q"),
		}
		if raw := c.Query("category_id"); raw != "" {
			id, err := uuid.FromString(raw)
			if err != nil {
				transport.Fail(c, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "category_id must be a valid UUID"))
				return
			}
			filter.CategoryID = &id
		}
		if raw := c.Query("status"); raw != "" {
			status := catalog.ProductStatus(raw)
			filter.Status = &status
		}
		products, err := h.cs.SearchProducts(c.Request.Context(), filter, transport.PageOf(c))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, products)
	}
}

func (h *Http) createProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload catalog.CreateProduct
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.cs.CreateProduct(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

// getProduct accepts either the id or the friendly id
func (h *Http) getProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.cs.FindProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) updateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		var payload catalog.UpdateProduct
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		updated, err := h.cs.UpdateProduct(c.Request.Context(), id, payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, updated)
	}
}

func (h *Http) deleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		if err := h.cs.DeleteProduct(c.Request.Context(), id); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *Http) createProductItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload catalog.CreateProductItem
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.cs.CreateProductItem(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) getProductItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.cs.FindProductItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}
