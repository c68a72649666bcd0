package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// backends returns one fresh instance of every Storage implementation.
func backends(t *testing.T) map[string]Storage {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Storage{
		"memory": NewMemStorage(),
		"gorm":   db,
	}
}

// eachBackend runs fn once per backend as a subtest.
func eachBackend(t *testing.T, fn func(t *testing.T, s Storage)) {
	t.Helper()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, s)
		})
	}
}

func seedSupplier(t *testing.T, s Storage, username string) *shop.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), shop.NewUser{
		Username: username,
		Password: "x",
		Email:    username + "@example.com",
		FullName: "Supplier " + username,
		Role:     shop.RoleSupplier,
	})
	require.NoError(t, err)
	return u
}

func seedProduct(t *testing.T, s Storage, supplierID uint, name string, stock int, active bool) *shop.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), shop.NewProduct{
		Name:       name,
		Price:      decimal.RequireFromString("25.50"),
		Category:   "shirts",
		SupplierID: supplierID,
		Stock:      stock,
		IsActive:   active,
	})
	require.NoError(t, err)
	return p
}

func TestStorage_UserLookups(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()

		u, err := s.CreateUser(ctx, shop.NewUser{Username: "Ama", Password: "h.s", Role: shop.RoleCustomer})
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		second, err := s.CreateUser(ctx, shop.NewUser{Username: "kofi", Password: "h.s", Role: shop.RoleSupplier})
		require.NoError(t, err)
		assert.Greater(t, second.ID, u.ID)

		got, err := s.GetUserByUsername(ctx, "Ama")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)

		missing, err := s.GetUserByUsername(ctx, "ama")
		require.NoError(t, err)
		assert.Nil(t, missing, "username lookup is case-sensitive")

		none, err := s.GetUser(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, none)

		suppliers, err := s.GetUsersByRole(ctx, shop.RoleSupplier)
		require.NoError(t, err)
		require.Len(t, suppliers, 1)
		assert.Equal(t, "kofi", suppliers[0].Username)
	})
}

func TestStorage_ProductRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")
		release := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

		in := shop.NewProduct{
			Name:            "Kente Scarf",
			Description:     "Handwoven",
			Price:           decimal.RequireFromString("49.99"),
			Discount:        decimal.RequireFromString("10"),
			Category:        "accessories",
			ImageURLs:       []string{"/uploads/a/1.png", "/uploads/b/2.png"},
			AvailableSizes:  []string{"S", "M"},
			AvailableColors: []string{"gold"},
			SupplierID:      supplier.ID,
			Stock:           12,
			IsActive:        true,
			ComingSoon:      true,
			ReleaseDate:     &release,
		}
		created, err := s.CreateProduct(ctx, in)
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		got, err := s.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.Description, got.Description)
		assert.True(t, in.Price.Equal(got.Price), "price %s", got.Price)
		assert.True(t, in.Discount.Equal(got.Discount), "discount %s", got.Discount)
		assert.Equal(t, in.Category, got.Category)
		assert.Equal(t, in.ImageURLs, got.ImageURLs)
		assert.Equal(t, in.AvailableSizes, got.AvailableSizes)
		assert.Equal(t, in.AvailableColors, got.AvailableColors)
		assert.Equal(t, in.SupplierID, got.SupplierID)
		assert.Equal(t, in.Stock, got.Stock)
		assert.Equal(t, in.IsActive, got.IsActive)
		assert.Equal(t, in.ComingSoon, got.ComingSoon)
		require.NotNil(t, got.ReleaseDate)
		assert.True(t, release.Equal(*got.ReleaseDate))
	})
}

func TestStorage_GetProductsFilter(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		a := seedSupplier(t, s, "a")
		b := seedSupplier(t, s, "b")

		p1 := seedProduct(t, s, a.ID, "one", 1, true)
		p2 := seedProduct(t, s, b.ID, "two", 1, false)
		p3 := seedProduct(t, s, a.ID, "three", 1, true)

		all, err := s.GetProducts(ctx, shop.ProductFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []uint{p1.ID, p2.ID, p3.ID}, productIDs(all), "insertion order")

		active := true
		supplierA := a.ID
		got, err := s.GetProducts(ctx, shop.ProductFilter{IsActive: &active, SupplierID: &supplierA})
		require.NoError(t, err)
		assert.Equal(t, []uint{p1.ID, p3.ID}, productIDs(got))

		hats := "hats"
		none, err := s.GetProducts(ctx, shop.ProductFilter{Category: &hats})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStorage_UpdateProductPartial(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")
		p := seedProduct(t, s, supplier.ID, "Dashiki", 5, true)

		name := "Dashiki Deluxe"
		updated, err := s.UpdateProduct(ctx, p.ID, shop.ProductPatch{Name: &name})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, name, updated.Name)
		assert.Equal(t, 5, updated.Stock)
		assert.Equal(t, "shirts", updated.Category)
		assert.True(t, updated.IsActive)

		missing, err := s.UpdateProduct(ctx, 999, shop.ProductPatch{Name: &name})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestStorage_DeleteProductCascades(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")
		p := seedProduct(t, s, supplier.ID, "Beads", 3, true)
		other := seedProduct(t, s, supplier.ID, "Bangle", 3, true)

		_, err := s.UpdateInventory(ctx, supplier.ID, p.ID, 3)
		require.NoError(t, err)
		_, err = s.UpdateInventory(ctx, supplier.ID, other.ID, 8)
		require.NoError(t, err)
		_, err = s.CreateReview(ctx, shop.NewReview{ProductID: p.ID, Rating: 4})
		require.NoError(t, err)
		kept, err := s.CreateReview(ctx, shop.NewReview{ProductID: other.ID, Rating: 5})
		require.NoError(t, err)

		removed, err := s.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		gone, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		reviews, err := s.GetReviews(ctx, nil)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, kept.ID, reviews[0].ID)

		inventory, err := s.GetInventory(ctx, supplier.ID)
		require.NoError(t, err)
		require.Len(t, inventory, 1)
		assert.Equal(t, other.ID, inventory[0].ProductID)

		again, err := s.DeleteProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, again)
	})
}

func TestStorage_OrdersAndItems(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")
		p := seedProduct(t, s, supplier.ID, "Sandals", 10, true)

		o1, err := s.CreateOrder(ctx, shop.NewOrder{CustomerID: 1, TotalAmount: decimal.NewFromInt(51), Status: shop.OrderPending, PaymentStatus: shop.PaymentPending})
		require.NoError(t, err)
		assert.False(t, o1.OrderDate.IsZero())
		o2, err := s.CreateOrder(ctx, shop.NewOrder{CustomerID: 2, TotalAmount: decimal.NewFromInt(10), Status: shop.OrderShipped, PaymentStatus: shop.PaymentPaid})
		require.NoError(t, err)

		_, err = s.AddOrderItem(ctx, shop.NewOrderItem{OrderID: o1.ID, ProductID: p.ID, Quantity: 2, Price: decimal.RequireFromString("25.50"), Size: "M"})
		require.NoError(t, err)
		_, err = s.AddOrderItem(ctx, shop.NewOrderItem{OrderID: o2.ID, ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)})
		require.NoError(t, err)

		customer := uint(1)
		mine, err := s.GetOrders(ctx, shop.OrderFilter{CustomerID: &customer})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, o1.ID, mine[0].ID)

		shipped := shop.OrderShipped
		byStatus, err := s.GetOrders(ctx, shop.OrderFilter{Status: &shipped})
		require.NoError(t, err)
		require.Len(t, byStatus, 1)
		assert.Equal(t, o2.ID, byStatus[0].ID)

		delivered := shop.OrderDelivered
		updated, err := s.UpdateOrder(ctx, o1.ID, shop.OrderPatch{Status: &delivered})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, shop.OrderDelivered, updated.Status)
		assert.Equal(t, shop.PaymentPending, updated.PaymentStatus)
		assert.True(t, decimal.NewFromInt(51).Equal(updated.TotalAmount))

		items, err := s.GetOrderItems(ctx, o1.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, "M", items[0].Size)
	})
}

func TestStorage_DeleteOrderCascades(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		o, err := s.CreateOrder(ctx, shop.NewOrder{CustomerID: 1, Status: shop.OrderPending, PaymentStatus: shop.PaymentPending})
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err := s.AddOrderItem(ctx, shop.NewOrderItem{OrderID: o.ID, ProductID: uint(i + 1), Quantity: 1})
			require.NoError(t, err)
		}

		removed, err := s.DeleteOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		items, err := s.GetOrderItems(ctx, o.ID)
		require.NoError(t, err)
		assert.Empty(t, items)

		gone, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		again, err := s.DeleteOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.False(t, again)
	})
}

func TestStorage_CartUpsert(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()

		none, err := s.GetCart(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, none)

		first, err := s.UpdateCart(ctx, 5, []shop.CartItem{{ProductID: 1, Quantity: 2, Size: "L", Color: "red"}})
		require.NoError(t, err)

		second, err := s.UpdateCart(ctx, 5, []shop.CartItem{{ProductID: 3, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "one cart per user")
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

		got, err := s.GetCart(ctx, 5)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []shop.CartItem{{ProductID: 3, Quantity: 1}}, got.Items, "items are replaced wholesale")

		cleared, err := s.UpdateCart(ctx, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, cleared.Items)
	})
}

func TestStorage_UpdateInventorySyncsProductStock(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")
		p := seedProduct(t, s, supplier.ID, "Wrapper", 10, true)

		for _, n := range []int{4, 0, 17} {
			inv, err := s.UpdateInventory(ctx, supplier.ID, p.ID, n)
			require.NoError(t, err)
			assert.Equal(t, n, inv.AvailableStock)

			got, err := s.GetProduct(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, n, got.Stock)
		}

		rows, err := s.GetInventory(ctx, supplier.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1, "upsert keyed by supplier and product")
		assert.Equal(t, 17, rows[0].AvailableStock)
	})
}

func TestStorage_ReviewCustomerNullable(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()

		for _, id := range []int{0, -3} {
			r, err := s.CreateReview(ctx, shop.NewReview{ProductID: 1, CustomerID: id, Rating: 5, Comment: "admin"})
			require.NoError(t, err)
			assert.Nil(t, r.CustomerID)
		}

		r, err := s.CreateReview(ctx, shop.NewReview{ProductID: 1, CustomerID: 9, Rating: 3})
		require.NoError(t, err)
		require.NotNil(t, r.CustomerID)
		assert.Equal(t, uint(9), *r.CustomerID)

		stored, err := s.GetReviews(ctx, nil)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, r.ID, stored[0].ID, "newest first")
		assert.Nil(t, stored[1].CustomerID)
		assert.Nil(t, stored[2].CustomerID)
	})
}

func TestStorage_GetReviewsByProduct(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		r1, err := s.CreateReview(ctx, shop.NewReview{ProductID: 1, Rating: 2})
		require.NoError(t, err)
		_, err = s.CreateReview(ctx, shop.NewReview{ProductID: 2, Rating: 4})
		require.NoError(t, err)
		r3, err := s.CreateReview(ctx, shop.NewReview{ProductID: 1, Rating: 5})
		require.NoError(t, err)

		productID := uint(1)
		got, err := s.GetReviews(ctx, &productID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, r3.ID, got[0].ID)
		assert.Equal(t, r1.ID, got[1].ID)

		removed, err := s.DeleteReview(ctx, r1.ID)
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = s.DeleteReview(ctx, r1.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestStorage_GetTopReviews(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		var fives []uint
		for _, rating := range []int{5, 3, 4, 5, 2} {
			r, err := s.CreateReview(ctx, shop.NewReview{ProductID: 1, Rating: rating})
			require.NoError(t, err)
			if rating == 5 {
				fives = append(fives, r.ID)
			}
		}

		top, err := s.GetTopReviews(ctx, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, fives, []uint{top[0].ID, top[1].ID})

		defaulted, err := s.GetTopReviews(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, defaulted, 5)
		assert.Equal(t, 2, defaulted[4].Rating)
	})
}

func TestStorage_GetTrendingProducts(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")

		hidden := seedProduct(t, s, supplier.ID, "hidden", 1, false)
		good := seedProduct(t, s, supplier.ID, "good", 1, true)
		unrated := seedProduct(t, s, supplier.ID, "unrated", 1, true)
		best := seedProduct(t, s, supplier.ID, "best", 1, true)

		for _, r := range []shop.NewReview{
			{ProductID: hidden.ID, Rating: 5},
			{ProductID: hidden.ID, Rating: 5},
			{ProductID: good.ID, Rating: 4},
			{ProductID: good.ID, Rating: 3},
			{ProductID: best.ID, Rating: 5},
			{ProductID: best.ID, Rating: 4},
		} {
			_, err := s.CreateReview(ctx, r)
			require.NoError(t, err)
		}

		trending, err := s.GetTrendingProducts(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint{best.ID, good.ID, unrated.ID}, productIDs(trending))

		limited, err := s.GetTrendingProducts(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{best.ID}, productIDs(limited))
	})
}

func TestStorage_GetTopSellingProducts(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")

		a := seedProduct(t, s, supplier.ID, "a", 50, true)
		b := seedProduct(t, s, supplier.ID, "b", 50, true)
		c := seedProduct(t, s, supplier.ID, "c", 50, true)
		d := seedProduct(t, s, supplier.ID, "d", 50, true)
		e := seedProduct(t, s, supplier.ID, "e", 50, false)

		o, err := s.CreateOrder(ctx, shop.NewOrder{CustomerID: 1, Status: shop.OrderPending, PaymentStatus: shop.PaymentPending})
		require.NoError(t, err)
		for _, line := range []struct {
			product uint
			qty     int
		}{{b.ID, 2}, {c.ID, 1}, {b.ID, 3}, {e.ID, 40}, {c.ID, 2}} {
			_, err := s.AddOrderItem(ctx, shop.NewOrderItem{OrderID: o.ID, ProductID: line.product, Quantity: line.qty})
			require.NoError(t, err)
		}

		top, err := s.GetTopSellingProducts(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint{b.ID, c.ID, a.ID, d.ID}, productIDs(top))
	})
}

func TestStorage_Atomically(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		supplier := seedSupplier(t, s, "sup")
		p := seedProduct(t, s, supplier.ID, "Cap", 9, true)

		err := s.Atomically(ctx, func(tx Storage) error {
			_, err := tx.UpdateInventory(ctx, supplier.ID, p.ID, 6)
			return err
		})
		require.NoError(t, err)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Stock)

		boom := errors.New("boom")
		err = s.Atomically(ctx, func(tx Storage) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestDBStorage_AtomicallyRollsBack(t *testing.T) {
	s, err := Open(DriverSQLite, ":memory:", false)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	supplier := seedSupplier(t, s, "sup")
	p := seedProduct(t, s, supplier.ID, "Cap", 9, true)

	err = s.Atomically(ctx, func(tx Storage) error {
		if _, err := tx.UpdateInventory(ctx, supplier.ID, p.ID, 1); err != nil {
			return err
		}
		if _, err := tx.UpdateCart(ctx, 4, nil); err != nil {
			return err
		}
		return errors.New("payment declined")
	})
	require.Error(t, err)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)

	cart, err := s.GetCart(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func TestMemStorage_ReturnsCopies(t *testing.T) {
	s := NewMemStorage()
	ctx := context.Background()
	p, err := s.CreateProduct(ctx, shop.NewProduct{Name: "Tote", ImageURLs: []string{"/a.png"}})
	require.NoError(t, err)

	p.Name = "changed"
	p.ImageURLs[0] = "changed"

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tote", got.Name)
	assert.Equal(t, "/a.png", got.ImageURLs[0])
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn", false)
	assert.Error(t, err)
}

func productIDs(products []shop.Product) []uint {
	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func TestStorage_CreateUserRejectsDuplicateUsername(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()

		first, err := s.CreateUser(ctx, shop.NewUser{Username: "ama", Password: "h.s", Role: shop.RoleCustomer})
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, shop.NewUser{Username: "ama", Password: "other", Role: shop.RoleSupplier})
		require.ErrorIs(t, err, ErrConflict)

		got, err := s.GetUserByUsername(ctx, "ama")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, shop.RoleCustomer, got.Role)
	})
}

func TestStorage_UpdateUserPassword(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		u, err := s.CreateUser(ctx, shop.NewUser{Username: "ama", Password: "plain", Role: shop.RoleCustomer})
		require.NoError(t, err)

		updated, err := s.UpdateUserPassword(ctx, u.ID, "digest.salt")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "digest.salt", updated.Password)

		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "digest.salt", got.Password)
		assert.Equal(t, "ama", got.Username)

		missing, err := s.UpdateUserPassword(ctx, 999, "x.y")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestStorage_OrderKeepsPaymentReference(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		o, err := s.CreateOrder(ctx, shop.NewOrder{
			CustomerID:       3,
			TotalAmount:      decimal.NewFromInt(20),
			Status:           shop.OrderPending,
			PaymentStatus:    shop.PaymentPaid,
			PaymentReference: "ref_abc",
		})
		require.NoError(t, err)

		got, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "ref_abc", got.PaymentReference)
	})
}

func TestDBStorage_UpdateDoesNotRecreateDeletedRows(t *testing.T) {
	s, err := Open(DriverSQLite, ":memory:", false)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	supplier := seedSupplier(t, s, "sup")
	p := seedProduct(t, s, supplier.ID, "Cap", 9, true)
	o, err := s.CreateOrder(ctx, shop.NewOrder{CustomerID: 1, TotalAmount: decimal.NewFromInt(9), Status: shop.OrderPending, PaymentStatus: shop.PaymentPending})
	require.NoError(t, err)

	// Another request deletes the row after the update has read it.
	require.NoError(t, s.db.Callback().Update().Before("gorm:update").Register("test:delete_row", func(tx *gorm.DB) {
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, "DELETE FROM "+tx.Statement.Table)
		require.NoError(t, err)
	}))

	name := "Bucket hat"
	product, err := s.UpdateProduct(ctx, p.ID, shop.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, product)

	shipped := shop.OrderShipped
	order, err := s.UpdateOrder(ctx, o.ID, shop.OrderPatch{Status: &shipped})
	require.NoError(t, err)
	assert.Nil(t, order)

	require.NoError(t, s.db.Callback().Update().Remove("test:delete_row"))

	gotProduct, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gotProduct)
	gotOrder, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, gotOrder)
}

func TestDBStorage_UpdateWritesZeroValues(t *testing.T) {
	s, err := Open(DriverSQLite, ":memory:", false)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	supplier := seedSupplier(t, s, "sup")
	p := seedProduct(t, s, supplier.ID, "Cap", 9, true)

	inactive, empty := false, 0
	updated, err := s.UpdateProduct(ctx, p.ID, shop.ProductPatch{IsActive: &inactive, Stock: &empty})
	require.NoError(t, err)
	require.NotNil(t, updated)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Zero(t, got.Stock)
	assert.Equal(t, "Cap", got.Name)
	assert.Equal(t, p.CreatedAt.Unix(), got.CreatedAt.Unix())
}
