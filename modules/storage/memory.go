package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/gofiber/fiber/v2"
)

var _ Storage = (*MemStorage)(nil)

// MemStorage keeps every entity in maps keyed by a per-entity counter.
//
// The lock only protects the maps. Separate calls are not isolated from each
// other, so concurrent read-modify-write sequences may lose updates.
type MemStorage struct {
	mu sync.RWMutex
	// workflow serializes Atomically callers.
	workflow sync.Mutex

	users     map[uint]shop.User
	products  map[uint]shop.Product
	orders    map[uint]shop.Order
	items     map[uint]shop.OrderItem
	carts     map[uint]shop.Cart // keyed by user id
	inventory map[uint]shop.SupplierInventory
	reviews   map[uint]shop.Review

	nextUser      uint
	nextProduct   uint
	nextOrder     uint
	nextItem      uint
	nextCart      uint
	nextInventory uint
	nextReview    uint

	sessions *memorySessions
	now      func() time.Time
}

// NewMemStorage creates an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:     make(map[uint]shop.User),
		products:  make(map[uint]shop.Product),
		orders:    make(map[uint]shop.Order),
		items:     make(map[uint]shop.OrderItem),
		carts:     make(map[uint]shop.Cart),
		inventory: make(map[uint]shop.SupplierInventory),
		reviews:   make(map[uint]shop.Review),
		sessions:  newMemorySessions(),
		now:       time.Now,
	}
}

// sortedValues returns map values in ascending key order, which is insertion order.
func sortedValues[T any](m map[uint]T, keep func(*T) bool) []T {
	out := make([]T, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		v := m[id]
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	return out
}

func cloneProduct(p shop.Product) shop.Product {
	p.ImageURLs = slices.Clone(p.ImageURLs)
	p.AvailableSizes = slices.Clone(p.AvailableSizes)
	p.AvailableColors = slices.Clone(p.AvailableColors)
	if p.ReleaseDate != nil {
		d := *p.ReleaseDate
		p.ReleaseDate = &d
	}
	return p
}

func cloneReview(r shop.Review) shop.Review {
	if r.CustomerID != nil {
		id := *r.CustomerID
		r.CustomerID = &id
	}
	return r
}

// ============================================================
// Users
// ============================================================

func (s *MemStorage) GetUser(_ context.Context, id uint) (*shop.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemStorage) GetUserByUsername(_ context.Context, username string) (*shop.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemStorage) GetUsersByRole(_ context.Context, role shop.Role) ([]shop.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.users, func(u *shop.User) bool { return u.Role == role }), nil
}

func (s *MemStorage) CreateUser(_ context.Context, in shop.NewUser) (*shop.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == in.Username {
			return nil, fmt.Errorf("failed to create user: %w", ErrConflict)
		}
	}
	s.nextUser++
	u := shop.User{
		ID:        s.nextUser,
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		FullName:  in.FullName,
		Role:      in.Role,
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemStorage) UpdateUserPassword(_ context.Context, id uint, password string) (*shop.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u.Password = password
	s.users[id] = u
	return &u, nil
}

// ============================================================
// Products
// ============================================================

func (s *MemStorage) GetProduct(_ context.Context, id uint) (*shop.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	p = cloneProduct(p)
	return &p, nil
}

func (s *MemStorage) GetProducts(_ context.Context, filter shop.ProductFilter) ([]shop.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedValues(s.products, filter.Matches)
	for i := range out {
		out[i] = cloneProduct(out[i])
	}
	return out, nil
}

func (s *MemStorage) CreateProduct(_ context.Context, in shop.NewProduct) (*shop.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProduct++
	p := cloneProduct(shop.Product{
		ID:              s.nextProduct,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Discount:        in.Discount,
		Category:        in.Category,
		ImageURLs:       in.ImageURLs,
		AvailableSizes:  in.AvailableSizes,
		AvailableColors: in.AvailableColors,
		SupplierID:      in.SupplierID,
		Stock:           in.Stock,
		IsActive:        in.IsActive,
		ComingSoon:      in.ComingSoon,
		ReleaseDate:     in.ReleaseDate,
		CreatedAt:       s.now(),
	})
	s.products[p.ID] = p
	p = cloneProduct(p)
	return &p, nil
}

func (s *MemStorage) UpdateProduct(_ context.Context, id uint, patch shop.ProductPatch) (*shop.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	p = cloneProduct(p)
	patch.Apply(&p)
	s.products[id] = p
	p = cloneProduct(p)
	return &p, nil
}

func (s *MemStorage) DeleteProduct(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for invID, inv := range s.inventory {
		if inv.ProductID == id {
			delete(s.inventory, invID)
		}
	}
	for reviewID, r := range s.reviews {
		if r.ProductID == id {
			delete(s.reviews, reviewID)
		}
	}
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

// ============================================================
// Orders
// ============================================================

func (s *MemStorage) GetOrder(_ context.Context, id uint) (*shop.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *MemStorage) GetOrders(_ context.Context, filter shop.OrderFilter) ([]shop.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.orders, filter.Matches), nil
}

func (s *MemStorage) CreateOrder(_ context.Context, in shop.NewOrder) (*shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrder++
	o := shop.Order{
		ID:               s.nextOrder,
		CustomerID:       in.CustomerID,
		TotalAmount:      in.TotalAmount,
		Status:           in.Status,
		PaymentStatus:    in.PaymentStatus,
		PaymentReference: in.PaymentReference,
		OrderDate:        s.now(),
	}
	s.orders[o.ID] = o
	return &o, nil
}

func (s *MemStorage) UpdateOrder(_ context.Context, id uint, patch shop.OrderPatch) (*shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&o)
	s.orders[id] = o
	return &o, nil
}

func (s *MemStorage) DeleteOrder(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for itemID, it := range s.items {
		if it.OrderID == id {
			delete(s.items, itemID)
		}
	}
	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func (s *MemStorage) GetOrderItems(_ context.Context, orderID uint) ([]shop.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.items, func(it *shop.OrderItem) bool { return it.OrderID == orderID }), nil
}

func (s *MemStorage) AddOrderItem(_ context.Context, in shop.NewOrderItem) (*shop.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItem++
	it := shop.OrderItem{
		ID:        s.nextItem,
		OrderID:   in.OrderID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Size:      in.Size,
		Color:     in.Color,
	}
	s.items[it.ID] = it
	return &it, nil
}

// ============================================================
// Carts
// ============================================================

func (s *MemStorage) GetCart(_ context.Context, userID uint) (*shop.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

func (s *MemStorage) UpdateCart(_ context.Context, userID uint, items []shop.CartItem) (*shop.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		s.nextCart++
		c = shop.Cart{ID: s.nextCart, UserID: userID}
	}
	c.Items = slices.Clone(items)
	if c.Items == nil {
		c.Items = []shop.CartItem{}
	}
	c.UpdatedAt = s.now()
	s.carts[userID] = c
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

// ============================================================
// Inventory
// ============================================================

func (s *MemStorage) GetInventory(_ context.Context, supplierID uint) ([]shop.SupplierInventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.inventory, func(inv *shop.SupplierInventory) bool {
		return inv.SupplierID == supplierID
	}), nil
}

// UpdateInventory writes the inventory row and then the product stock. The two
// writes are separate steps; a concurrent caller can observe one without the other.
func (s *MemStorage) UpdateInventory(ctx context.Context, supplierID, productID uint, stock int) (*shop.SupplierInventory, error) {
	inv := s.upsertInventory(supplierID, productID, stock)
	if _, err := s.UpdateProduct(ctx, productID, shop.ProductPatch{Stock: &stock}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *MemStorage) upsertInventory(supplierID, productID uint, stock int) *shop.SupplierInventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var row shop.SupplierInventory
	found := false
	for _, inv := range s.inventory {
		if inv.SupplierID == supplierID && inv.ProductID == productID {
			row, found = inv, true
			break
		}
	}
	if !found {
		s.nextInventory++
		row = shop.SupplierInventory{ID: s.nextInventory, SupplierID: supplierID, ProductID: productID}
	}
	row.AvailableStock = stock
	row.UpdatedAt = s.now()
	s.inventory[row.ID] = row
	return &row
}

// ============================================================
// Reviews
// ============================================================

func (s *MemStorage) CreateReview(_ context.Context, in shop.NewReview) (*shop.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReview++
	r := shop.Review{
		ID:        s.nextReview,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	}
	if in.CustomerID > 0 {
		id := uint(in.CustomerID)
		r.CustomerID = &id
	}
	s.reviews[r.ID] = r
	r = cloneReview(r)
	return &r, nil
}

func (s *MemStorage) GetReviews(_ context.Context, productID *uint) ([]shop.Review, error) {
	s.mu.RLock()
	out := sortedValues(s.reviews, func(r *shop.Review) bool {
		return productID == nil || r.ProductID == *productID
	})
	s.mu.RUnlock()
	for i := range out {
		out[i] = cloneReview(out[i])
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStorage) GetTopReviews(_ context.Context, limit int) ([]shop.Review, error) {
	s.mu.RLock()
	out := sortedValues(s.reviews, nil)
	s.mu.RUnlock()
	for i := range out {
		out[i] = cloneReview(out[i])
	}
	return topRated(out, normalizeLimit(limit, DefaultTopReviewsLimit)), nil
}

func (s *MemStorage) DeleteReview(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return false, nil
	}
	delete(s.reviews, id)
	return true, nil
}

// ============================================================
// Derived queries
// ============================================================

func (s *MemStorage) GetTrendingProducts(_ context.Context, limit int) ([]shop.Product, error) {
	s.mu.RLock()
	active := sortedValues(s.products, func(p *shop.Product) bool { return p.IsActive })
	reviews := sortedValues(s.reviews, nil)
	s.mu.RUnlock()
	ranked := rankProducts(active, meanRatings(reviews), normalizeLimit(limit, DefaultRankingLimit))
	for i := range ranked {
		ranked[i] = cloneProduct(ranked[i])
	}
	return ranked, nil
}

func (s *MemStorage) GetTopSellingProducts(_ context.Context, limit int) ([]shop.Product, error) {
	s.mu.RLock()
	active := sortedValues(s.products, func(p *shop.Product) bool { return p.IsActive })
	items := sortedValues(s.items, nil)
	s.mu.RUnlock()
	ranked := rankProducts(active, quantitiesSold(items), normalizeLimit(limit, DefaultRankingLimit))
	for i := range ranked {
		ranked[i] = cloneProduct(ranked[i])
	}
	return ranked, nil
}

// ============================================================
// Sessions and workflows
// ============================================================

func (s *MemStorage) SessionStore() fiber.Storage {
	return s.sessions
}

// PurgeExpiredSessions drops expired sessions and returns how many were removed.
func (s *MemStorage) PurgeExpiredSessions() (int64, error) {
	return s.sessions.purgeExpired(), nil
}

func (s *MemStorage) Atomically(_ context.Context, fn func(Storage) error) error {
	s.workflow.Lock()
	defer s.workflow.Unlock()
	return fn(s)
}

func (s *MemStorage) Close() error {
	return nil
}
