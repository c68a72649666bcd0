package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductLifecycle(t *testing.T) {
	h := newHarness(t)
	owner, ownerUser := h.signUp("sam", shop.RoleSupplier)
	rival, _ := h.signUp("rita", shop.RoleSupplier)
	customer, _ := h.signUp("carol", shop.RoleCustomer)

	product := h.createProduct(owner, map[string]any{
		"name":     "Kente Shirt",
		"price":    "20.00",
		"category": "shirts",
		"stock":    5,
	})
	assert.Equal(t, ownerUser.ID, product.SupplierID)
	assert.True(t, product.IsActive)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(20)))

	resp := h.do(http.MethodGet, "/api/inventory", nil, owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[[]shop.SupplierInventory](t, resp)
	require.Len(t, rows, 1)
	assert.Equal(t, product.ID, rows[0].ProductID)
	assert.Equal(t, 5, rows[0].AvailableStock)

	resp = h.do(http.MethodGet, "/api/products?category=shirts", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]shop.Product](t, resp), 1)

	path := idPath("/api/products/", product.ID)
	resp = h.do(http.MethodPatch, path, map[string]any{"stock": 1}, rival)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPatch, path, map[string]any{"stock": 8, "name": "Kente Shirt II"}, owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[shop.Product](t, resp)
	assert.Equal(t, "Kente Shirt II", updated.Name)
	assert.Equal(t, 8, updated.Stock)
	assert.Equal(t, "shirts", updated.Category)

	rows, err := h.store.GetInventory(t.Context(), ownerUser.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8, rows[0].AvailableStock)

	resp = h.do(http.MethodGet, path, nil, customer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, product.ID, decode[shop.Product](t, resp).ID)

	resp = h.do(http.MethodDelete, path, nil, rival)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodDelete, path, nil, owner)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Len(t, h.events.deleted, 1)
	assert.Equal(t, product.ID, h.events.deleted[0].ProductID)
	assert.Equal(t, ownerUser.ID, h.events.deleted[0].SupplierID)

	resp = h.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = h.do(http.MethodDelete, path, nil, owner)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	rows, err = h.store.GetInventory(t.Context(), ownerUser.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateProduct_Validation(t *testing.T) {
	h := newHarness(t)
	supplier, _ := h.signUp("sam", shop.RoleSupplier)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing name", map[string]any{"price": "10"}, "name"},
		{"zero price", map[string]any{"name": "Cap", "price": "0"}, "price"},
		{"negative price", map[string]any{"name": "Cap", "price": "-1"}, "price"},
		{"discount above 100", map[string]any{"name": "Cap", "price": "10", "discount": "150"}, "discount"},
		{"negative stock", map[string]any{"name": "Cap", "price": "10", "stock": -2}, "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, "/api/products", tt.body, supplier)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, errorsOf(t, resp).Errors, tt.field)
		})
	}
}

func TestCreateProduct_AdminNamesSupplier(t *testing.T) {
	h := newHarness(t)
	admin := h.signInAdmin()
	_, supplier := h.signUp("sam", shop.RoleSupplier)
	_, customer := h.signUp("carol", shop.RoleCustomer)

	resp := h.do(http.MethodPost, "/api/products", map[string]any{"name": "Cap", "price": "10"}, admin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorsOf(t, resp).Errors, "supplierId")

	resp = h.do(http.MethodPost, "/api/products", map[string]any{
		"name": "Cap", "price": "10", "supplierId": customer.ID,
	}, admin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "must reference a supplier", errorsOf(t, resp).Errors["supplierId"])

	product := h.createProduct(admin, map[string]any{
		"name": "Cap", "price": "10", "supplierId": supplier.ID, "stock": 3,
	})
	assert.Equal(t, supplier.ID, product.SupplierID)

	resp = h.do(http.MethodPatch, idPath("/api/products/", product.ID), map[string]any{"discount": "25"}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decode[shop.Product](t, resp)
	assert.True(t, patched.UnitPrice().Equal(decimal.RequireFromString("7.5")))
}

func TestListProducts_Filters(t *testing.T) {
	h := newHarness(t)
	supplier, supplierUser := h.signUp("sam", shop.RoleSupplier)

	h.createProduct(supplier, map[string]any{"name": "Visible", "price": "10", "category": "hats"})
	h.createProduct(supplier, map[string]any{"name": "Hidden", "price": "10", "category": "hats", "isActive": false})
	h.createProduct(supplier, map[string]any{"name": "Soon", "price": "10", "category": "bags", "comingSoon": true})

	resp := h.do(http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]shop.Product](t, resp), 2)

	resp = h.do(http.MethodGet, "/api/products?comingSoon=true", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	soon := decode[[]shop.Product](t, resp)
	require.Len(t, soon, 1)
	assert.Equal(t, "Soon", soon[0].Name)

	resp = h.do(http.MethodGet, "/api/products?comingSoon=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/supplier/products", nil, supplier)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	own := decode[[]shop.Product](t, resp)
	assert.Len(t, own, 3)
	for _, p := range own {
		assert.Equal(t, supplierUser.ID, p.SupplierID)
	}
}

func TestRankingRoutes(t *testing.T) {
	h := newHarness(t)
	supplier, _ := h.signUp("sam", shop.RoleSupplier)
	customer, _ := h.signUp("carol", shop.RoleCustomer)

	slow := h.createProduct(supplier, map[string]any{"name": "Slow", "price": "10", "stock": 50})
	fast := h.createProduct(supplier, map[string]any{"name": "Fast", "price": "10", "stock": 50})
	h.placeOrder(customer, OrderLine{ProductID: fast.ID, Quantity: 5}, OrderLine{ProductID: slow.ID, Quantity: 1})
	resp := h.do(http.MethodPost, idPath("/api/products/", fast.ID)+"/reviews", ReviewBody{Rating: 5}, customer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = h.do(http.MethodPost, idPath("/api/products/", slow.ID)+"/reviews", ReviewBody{Rating: 2}, customer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, path := range []string{"/api/products/trending", "/api/products/top-selling"} {
		resp := h.do(http.MethodGet, path+"?limit=1", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		ranked := decode[[]shop.Product](t, resp)
		require.Len(t, ranked, 1, path)
		assert.Equal(t, fast.ID, ranked[0].ID, path)
	}
}

func TestGetProduct_BadID(t *testing.T) {
	h := newHarness(t)
	resp := h.do(http.MethodGet, "/api/products/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = h.do(http.MethodGet, "/api/products/999", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckMoney(t *testing.T) {
	ten := decimal.NewFromInt(10)
	zero := decimal.Zero
	over := decimal.NewFromInt(101)

	assert.NoError(t, checkMoney(&ten, &ten))
	assert.NoError(t, checkMoney(nil, nil))
	assert.NoError(t, checkMoney(nil, &zero))

	err := checkMoney(&zero, &over)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, apiErr.Fields, 2)
}

func TestListProducts_IncludeInactive(t *testing.T) {
	h := newHarness(t)
	supplier, _ := h.signUp("sam", shop.RoleSupplier)
	customer, _ := h.signUp("carol", shop.RoleCustomer)
	admin := h.signInAdmin()

	h.createProduct(supplier, map[string]any{"name": "Visible", "price": "10"})
	hidden := h.createProduct(supplier, map[string]any{"name": "Hidden", "price": "10", "isActive": false})

	tests := []struct {
		name       string
		query      string
		session    string
		wantStatus int
		wantCount  int
	}{
		{"admin", "?includeInactive=true", admin, http.StatusOK, 2},
		{"admin without flag", "", admin, http.StatusOK, 1},
		{"admin flag off", "?includeInactive=false", admin, http.StatusOK, 1},
		{"anonymous", "?includeInactive=true", "", http.StatusUnauthorized, 0},
		{"customer", "?includeInactive=true", customer, http.StatusForbidden, 0},
		{"supplier", "?includeInactive=true", supplier, http.StatusForbidden, 0},
		{"malformed flag", "?includeInactive=sometimes", admin, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodGet, "/api/products"+tt.query, nil, tt.session)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Len(t, decode[[]shop.Product](t, resp), tt.wantCount)
		})
	}

	// An admin can find a deactivated product again and reactivate it.
	resp := h.do(http.MethodGet, "/api/products?includeInactive=true", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found bool
	for _, p := range decode[[]shop.Product](t, resp) {
		found = found || p.ID == hidden.ID
	}
	require.True(t, found)
	resp = h.do(http.MethodPatch, idPath("/api/products/", hidden.ID), map[string]any{"isActive": true}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]shop.Product](t, resp), 2)
}

func TestLoadRanking_SurvivesCallerCancellation(t *testing.T) {
	s := &server{}
	started := make(chan struct{})
	release := make(chan struct{})
	seen := make(chan error, 1)
	load := func(ctx context.Context, limit int) ([]shop.Product, error) {
		close(started)
		<-release
		seen <- ctx.Err()
		return []shop.Product{{ID: 1, Name: "Tote"}}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	callerErr := make(chan error, 1)
	go func() {
		_, err := s.loadRanking(ctx, "trending:4", 4, load)
		callerErr <- err
	}()
	<-started

	// The caller that started the shared load disconnects. Other callers
	// waiting on the same key still need the result.
	cancel()
	assert.ErrorIs(t, <-callerErr, context.Canceled)
	close(release)
	assert.NoError(t, <-seen)
}
