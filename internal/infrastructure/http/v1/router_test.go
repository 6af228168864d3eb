package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "warungpos/internal/core/context"
	"warungpos/internal/core/types"
	"warungpos/internal/domain/auth"
	"warungpos/internal/domain/cart"
	"warungpos/internal/domain/catalog"
	"warungpos/internal/domain/checkout"
	"warungpos/internal/domain/receipt"
	"warungpos/internal/infrastructure/numerator"
	"warungpos/internal/infrastructure/storage/memory"
	"warungpos/pkg/logger"
)

type testServer struct {
	router  http.Handler
	store   *memory.Store
	history *receipt.History
	admin   string
	cashier string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	sessions := cart.NewSessions(cart.NewMemoryStore())
	catalogSvc := catalog.NewService(store.Products(), store.TxManager())
	catalogSvc.Hooks().OnAfterDelete(func(ctx context.Context, p *catalog.Product) error {
		return sessions.ForgetProduct(ctx, p.ID)
	})
	history := receipt.NewHistory(50)
	cfg := checkout.DefaultConfig()
	cfg.Location = time.UTC
	committer := checkout.NewCommitter(checkout.Deps{
		TxManager: store.TxManager(),
		Receipts:  store.Receipts(),
		Stock:     store.Products(),
		Numbers:   numerator.New(nil),
		History:   history,
	}, cfg)

	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	admin, _, err := jwtSvc.GenerateAccessToken(appctx.CashierContext{CashierID: "owner", Role: auth.RoleAdmin})
	require.NoError(t, err)
	cashier, _, err := jwtSvc.GenerateAccessToken(appctx.CashierContext{CashierID: "kasir-1", Role: "cashier"})
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Logger:         logger.NewNop(),
		Catalog:        catalogSvc,
		Sessions:       sessions,
		Committer:      committer,
		Receipts:       receipt.NewService(store.Receipts()),
		History:        history,
		Location:       time.UTC,
		TokenValidator: jwtSvc,
		AuthRequired:   true,
	})
	return &testServer{router: router, store: store, history: history, admin: admin, cashier: cashier}
}

func (s *testServer) do(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type productBody struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

type cartBody struct {
	ID     string      `json:"id"`
	Lines  []lineBody  `json:"lines"`
	Totals cart.Totals `json:"totals"`
}

type lineBody struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
}

type receiptBody struct {
	ID       string      `json:"id"`
	Total    types.Money `json:"total"`
	Profit   types.Money `json:"profit"`
	IsManual bool        `json:"isManual"`
	Items    []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func (s *testServer) seed(t *testing.T) (aqua, photocopy string) {
	t.Helper()
	w := s.do(t, s.admin, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Aqua 600ml", "costPrice": "2500", "sellPrice": "3000", "stock": 48, "barcode": "8886008101053",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	aqua = decode[productBody](t, w).ID

	w = s.do(t, s.admin, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Fotokopi", "sellPrice": "300", "isPhotocopy": true, "code": "FC",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	photocopy = decode[productBody](t, w).ID
	return aqua, photocopy
}

func TestRouter_CheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	aqua, _ := s.seed(t)

	w := s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cartID := decode[cartBody](t, w).ID

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/items",
		map[string]any{"productId": aqua, "quantity": 1, "unit": "lusin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/items",
		map[string]any{"code": "FC", "quantity": 400})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c := decode[cartBody](t, w)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, 12, c.Lines[0].Quantity)
	assert.True(t, types.NewMoneyFromInt(275).Equal(c.Lines[1].UnitPrice), "400 sheets hit the 275 tier")

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/carts/"+cartID+"/totals?discount=1000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	totals := decode[cart.Totals](t, w)
	assert.True(t, types.NewMoneyFromInt(146000).Equal(totals.Subtotal))
	assert.True(t, types.NewMoneyFromInt(145000).Equal(totals.Total))

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout",
		map[string]any{"discount": "1000", "paymentMethod": "cash"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	r := decode[receiptBody](t, w)
	assert.True(t, strings.HasPrefix(r.ID, "INV-"), r.ID)
	assert.True(t, types.NewMoneyFromInt(145000).Equal(r.Total))
	assert.True(t, types.NewMoneyFromInt(116000).Equal(r.Profit))
	assert.False(t, r.IsManual)

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/carts/"+cartID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "committed cart is consumed")

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/products/"+aqua, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 36, decode[productBody](t, w).Stock)

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/receipts/"+r.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[receiptBody](t, w).Items, 2)

	assert.Equal(t, 1, s.history.Len())
}

func TestRouter_CheckoutEmptyCartKeepsCart(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)
	cartID := decode[cartBody](t, w).ID

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/carts/"+cartID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_DiscountAboveSubtotalRejected(t *testing.T) {
	s := newTestServer(t)
	aqua, _ := s.seed(t)

	cartID := decode[cartBody](t, s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)).ID
	s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/items", map[string]any{"productId": aqua})

	w := s.do(t, s.cashier, http.MethodGet, "/api/v1/carts/"+cartID+"/totals?discount=5000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout", map[string]any{"discount": "5000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CartLineEdits(t *testing.T) {
	s := newTestServer(t)
	aqua, photocopy := s.seed(t)
	cartID := decode[cartBody](t, s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)).ID
	base := "/api/v1/carts/" + cartID + "/items"

	s.do(t, s.cashier, http.MethodPost, base, map[string]any{"productId": aqua, "quantity": 2})
	s.do(t, s.cashier, http.MethodPost, base, map[string]any{"productId": photocopy, "quantity": 10, "total": "5000"})

	w := s.do(t, s.cashier, http.MethodPatch, base+"/"+aqua, map[string]any{"quantity": 5, "price": "2800"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c := decode[cartBody](t, w)
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.True(t, types.NewMoneyFromInt(2800).Equal(c.Lines[0].UnitPrice))
	assert.True(t, types.NewMoneyFromInt(500).Equal(c.Lines[1].UnitPrice))

	w = s.do(t, s.cashier, http.MethodPatch, base+"/"+aqua, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[cartBody](t, w).Lines, 1)

	w = s.do(t, s.cashier, http.MethodDelete, base+"/"+aqua, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, s.cashier, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cartBody](t, w).Lines)
}

func TestRouter_CartRejectsNegativePriceAndHugeQuantity(t *testing.T) {
	s := newTestServer(t)
	aqua, photocopy := s.seed(t)
	cartID := decode[cartBody](t, s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)).ID
	base := "/api/v1/carts/" + cartID + "/items"

	w := s.do(t, s.cashier, http.MethodPost, base, map[string]any{"productId": photocopy, "price": "-4000"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.do(t, s.cashier, http.MethodPost, base, map[string]any{"productId": aqua, "quantity": cart.MaxQuantity + 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.do(t, s.cashier, http.MethodPost, base, map[string]any{"productId": aqua, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, s.cashier, http.MethodPatch, base+"/"+aqua, map[string]any{"quantity": 3, "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/carts/"+cartID, nil)
	c := decode[cartBody](t, w)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity, "rejected edits leave the cart unchanged")
}

func TestRouter_DeletedProductLeavesOpenCarts(t *testing.T) {
	s := newTestServer(t)
	aqua, _ := s.seed(t)
	cartID := decode[cartBody](t, s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)).ID
	s.do(t, s.cashier, http.MethodPost, "/api/v1/carts/"+cartID+"/items", map[string]any{"productId": aqua})

	w := s.do(t, s.admin, http.MethodDelete, "/api/v1/products/"+aqua, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cartBody](t, w).Lines)
}

func TestRouter_ManualReceipt(t *testing.T) {
	s := newTestServer(t)
	aqua, _ := s.seed(t)

	w := s.do(t, s.cashier, http.MethodPost, "/api/v1/receipts/manual", map[string]any{
		"items": []map[string]any{
			{"productId": aqua, "quantity": 2, "price": "3000"},
			{"name": "Jilid", "quantity": 1, "price": "5000", "cost": "2000"},
		},
		"timestamp": "2026-01-14T09:30:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	r := decode[receiptBody](t, w)
	assert.True(t, strings.HasPrefix(r.ID, "MNL-"), r.ID)
	assert.True(t, r.IsManual)

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/products/"+aqua, nil)
	assert.Equal(t, 48, decode[productBody](t, w).Stock, "manual receipts leave stock alone")

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/receipts/manual", map[string]any{
		"items": []map[string]any{{"quantity": 1, "price": "5000"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/receipts/manual", map[string]any{
		"items": []map[string]any{{"name": "Jilid", "quantity": 1, "price": "-5000"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestRouter_ReceiptListScopedToCashier(t *testing.T) {
	s := newTestServer(t)
	aqua, _ := s.seed(t)

	for _, token := range []string{s.cashier, s.admin} {
		cartID := decode[cartBody](t, s.do(t, token, http.MethodPost, "/api/v1/carts", nil)).ID
		s.do(t, token, http.MethodPost, "/api/v1/carts/"+cartID+"/items", map[string]any{"productId": aqua})
		w := s.do(t, token, http.MethodPost, "/api/v1/carts/"+cartID+"/checkout", nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	type list struct {
		Count int `json:"count"`
	}
	w := s.do(t, s.cashier, http.MethodGet, "/api/v1/receipts", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[list](t, w).Count)

	w = s.do(t, s.admin, http.MethodGet, "/api/v1/receipts", nil)
	assert.Equal(t, 2, decode[list](t, w).Count)

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/receipts?recent=true", nil)
	assert.Equal(t, 1, decode[list](t, w).Count)

	w = s.do(t, s.admin, http.MethodGet, "/api/v1/receipts?manual=true", nil)
	assert.Equal(t, 0, decode[list](t, w).Count)

	w = s.do(t, s.admin, http.MethodGet, "/api/v1/receipts?from=2026-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Authorization(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "", http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, "not-a-token", http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, s.cashier, http.MethodPost, "/api/v1/products", map[string]any{"name": "Aqua"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, s.cashier, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, "", http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CartsOfOtherCashiersAreHidden(t *testing.T) {
	s := newTestServer(t)
	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	other, _, err := jwtSvc.GenerateAccessToken(appctx.CashierContext{CashierID: "kasir-2"})
	require.NoError(t, err)

	cartID := decode[cartBody](t, s.do(t, s.cashier, http.MethodPost, "/api/v1/carts", nil)).ID

	w := s.do(t, other, http.MethodGet, "/api/v1/carts/"+cartID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, s.admin, http.MethodGet, "/api/v1/carts/"+cartID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Units(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, s.cashier, http.MethodGet, "/api/v1/units?category=Kertas&quantity=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Options []catalog.UnitOption     `json:"options"`
		Display []catalog.UnitConversion `json:"display"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Options, 2)
	require.Len(t, resp.Display, 2)
	assert.Equal(t, catalog.UnitKarton, resp.Display[1].Unit)
	assert.Equal(t, 2, resp.Display[1].Quantity)
}
