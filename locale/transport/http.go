package transport

import (
	"net/http"

	"github.com/RagOfJoes/bloom/locale"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
)

type Http struct {
	ls locale.Service
}

func NewLocaleHttp(ls locale.Service, r gin.IRouter) {
	h := &Http{
		ls: ls,
	}
	r.GET("/currencies", h.listCurrencies())
	r.POST("/currencies", h.createCurrency())
	r.GET("/countries", h.listCountries())
	r.POST("/countries", h.createCountry())
	r.GET("/countries/:id", h.getCountry())
}

func (h *Http) listCurrencies() gin.HandlerFunc {
	return func(c *gin.Context) {
		currencies, err := h.ls.ListCurrencies(c.Request.Context())
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, currencies)
	}
}

func (h *Http) createCurrency() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload locale.CreateCurrency
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.ls.CreateCurrency(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

// listCountries searches when a q parameter is present
func (h *Http) listCountries() gin.HandlerFunc {
	return func(c *gin.Context) {
		if q := c.Query("q"); q != "" {
			countries, err := h.ls.SearchCountries(c.Request.Context(), q, transport.PageOf(c))
			if err != nil {
				transport.Fail(c, err)
				return
			}
			transport.OK(c, http.StatusOK, countries)
			return
		}
		countries, err := h.ls.ListCountries(c.Request.Context())
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, countries)
	}
}

func (h *Http) createCountry() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload locale.CreateCountry
		if err := transport.Bind(c, &payload); err != nil {
			transport.Fail(c, err)
			return
		}
		created, err := h.ls.CreateCountry(c.Request.Context(), payload)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) getCountry() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := transport.ParamID(c, "id")
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.ls.GetCountry(c.Request.Context(), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}
