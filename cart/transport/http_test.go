package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	cartGorm "github.com/RagOfJoes/bloom/cart/repository/gorm"
	cartService "github.com/RagOfJoes/bloom/cart/service"
	cartTransport "github.com/RagOfJoes/bloom/cart/transport"
	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	inventoryGorm "github.com/RagOfJoes/bloom/inventory/repository/gorm"
	inventoryService "github.com/RagOfJoes/bloom/inventory/service"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/persistence/sqlitetest"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/session"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type server struct {
	handler http.Handler
	cookies []*http.Cookie
}

func (s *server) do(t *testing.T, method string, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		s.cookies = cookies
	}
	return w
}

func newServer(t *testing.T) (*server, *catalog.Product) {
	gin.SetMode(gin.TestMode)
	db := sqlitetest.New(t)
	cfg := config.Default()
	log := logger.Nop()

	products := persistence.NewRepository[catalog.Product](db)
	product := &catalog.Product{
		Name:              "Monstera",
		Slug:              internal.Slug("Monstera", uuid.Must(uuid.NewV4())),
		Price:             decimal.RequireFromString("24.50"),
		SupplierAccountID: uuid.Must(uuid.NewV4()),
		CurrencyID:        uuid.Must(uuid.NewV4()),
		Status:            catalog.ProductActive,
	}
	require.NoError(t, products.Create(context.Background(), product))

	tx := persistence.NewTransactor(db)
	registry := record.NewRegistry()
	registry.Register(record.KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := products.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return found, nil
	})
	is := inventoryService.NewInventoryService(tx, log, registry, inventoryGorm.NewGormInventoryRepository(db))
	cs := cartService.NewCartService(tx, registry, is, cartGorm.NewGormCartRepository(db))
	sm := session.NewManager(cfg, nil)

	engine := transport.NewHttp(cfg)
	transport.Attach(cfg, db, log, engine, session.ActorMiddleware(sm))
	cartTransport.NewCartHttp(cs, sm, engine)

	return &server{handler: sm.LoadAndSave(engine)}, product
}

func TestCartHttp(t *testing.T) {
	srv, product := newServer(t)

	created := srv.do(t, http.MethodPost, "/carts", nil)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	cartID := gjson.Get(created.Body.String(), "payload.id").String()
	require.NotEmpty(t, cartID)
	friendlyID := gjson.Get(created.Body.String(), "payload.friendly_id").String()
	assert.True(t, internal.IsFriendlyID(friendlyID))

	added := srv.do(t, http.MethodPost, "/carts/"+cartID+"/items", map[string]interface{}{
		"cartable_type": "product",
		"cartable_id":   product.ID,
		"quantity":      2,
	})
	require.Equal(t, http.StatusCreated, added.Code, added.Body.String())

	found := srv.do(t, http.MethodGet, "/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, found.Code, found.Body.String())
	items := gjson.Get(found.Body.String(), "payload.items")
	require.Len(t, items.Array(), 1)
	assert.Equal(t, int64(2), items.Get("0.quantity").Int())
	assert.Equal(t, product.ID.String(), items.Get("0.cartable_id").String())
	assert.Equal(t, "Monstera", items.Get("0.cartable.name").String())

	// The friendly id reaches the same cart
	byFriendly := srv.do(t, http.MethodGet, "/carts/"+friendlyID, nil)
	require.Equal(t, http.StatusOK, byFriendly.Code)
	assert.Equal(t, cartID, gjson.Get(byFriendly.Body.String(), "payload.id").String())

	// Adding the same product again increases the line
	srv.do(t, http.MethodPost, "/carts/"+cartID+"/items", map[string]interface{}{
		"cartable_type": "product",
		"cartable_id":   product.ID,
		"quantity":      1,
	})
	found = srv.do(t, http.MethodGet, "/carts/current", nil)
	require.Equal(t, http.StatusOK, found.Code)
	assert.Equal(t, cartID, gjson.Get(found.Body.String(), "payload.id").String())
	assert.Equal(t, int64(3), gjson.Get(found.Body.String(), "payload.items.0.quantity").Int())
}

func TestCartHttpProblems(t *testing.T) {
	srv, product := newServer(t)

	created := srv.do(t, http.MethodPost, "/carts", nil)
	require.Equal(t, http.StatusCreated, created.Code)
	cartID := gjson.Get(created.Body.String(), "payload.id").String()

	// The session already owns a cart
	again := srv.do(t, http.MethodPost, "/carts", nil)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Equal(t, transport.ProblemContentType, again.Header().Get("Content-Type"))

	for _, test := range []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{name: "Zero Quantity", body: map[string]interface{}{"cartable_type": "product", "cartable_id": product.ID, "quantity": 0}, status: http.StatusBadRequest},
		{name: "Not Cartable", body: map[string]interface{}{"cartable_type": "category", "cartable_id": product.ID, "quantity": 1}, status: http.StatusBadRequest},
		{name: "Missing Product", body: map[string]interface{}{"cartable_type": "product", "cartable_id": uuid.Must(uuid.NewV4()), "quantity": 1}, status: http.StatusNotFound},
	} {
		t.Run(test.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/carts/"+cartID+"/items", test.body)
			assert.Equal(t, test.status, w.Code, w.Body.String())
			assert.Equal(t, int64(test.status), gjson.Get(w.Body.String(), "status").Int())
		})
	}

	missing := srv.do(t, http.MethodGet, "/carts/"+uuid.Must(uuid.NewV4()).String(), nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
