package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ Storage = (*DBStorage)(nil)

// Supported relational drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DBStorage implements Storage on a relational database through GORM.
type DBStorage struct {
	db       *gorm.DB
	sessions *dbSessions
	now      func() time.Time
}

// Open connects to the database and migrates every table.
func Open(driver, dsn string, debug bool) (*DBStorage, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Silent
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := NewDBStorage(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewDBStorage wraps an open GORM connection. Call Migrate before use on a fresh database.
func NewDBStorage(db *gorm.DB) *DBStorage {
	return &DBStorage{
		db:       db,
		sessions: newDBSessions(db),
		now:      time.Now,
	}
}

// Migrate creates or updates every table.
func (s *DBStorage) Migrate() error {
	if err := s.db.AutoMigrate(
		&shop.User{},
		&shop.Product{},
		&shop.Order{},
		&shop.OrderItem{},
		&shop.Cart{},
		&shop.SupplierInventory{},
		&shop.Review{},
		&sessionRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *DBStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// PurgeExpiredSessions deletes expired session rows and returns how many were removed.
func (s *DBStorage) PurgeExpiredSessions() (int64, error) {
	return s.sessions.purgeExpired()
}

// first loads one row into dest, mapping a missing row to found=false.
func first(db *gorm.DB, dest any, query string, args ...any) (bool, error) {
	if err := db.Where(query, args...).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ============================================================
// Users
// ============================================================

func (s *DBStorage) GetUser(ctx context.Context, id uint) (*shop.User, error) {
	var u shop.User
	found, err := first(s.db.WithContext(ctx), &u, "id = ?", id)
	if err != nil || !found {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

func (s *DBStorage) GetUserByUsername(ctx context.Context, username string) (*shop.User, error) {
	var u shop.User
	found, err := first(s.db.WithContext(ctx), &u, "username = ?", username)
	if err != nil || !found {
		return nil, wrap("get user by username", err)
	}
	return &u, nil
}

func (s *DBStorage) GetUsersByRole(ctx context.Context, role shop.Role) ([]shop.User, error) {
	users := []shop.User{}
	if err := s.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, wrap("get users by role", err)
	}
	return users, nil
}

func (s *DBStorage) CreateUser(ctx context.Context, in shop.NewUser) (*shop.User, error) {
	u := shop.User{
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		FullName:  in.FullName,
		Role:      in.Role,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = ErrConflict
		}
		return nil, wrap("create user", err)
	}
	return &u, nil
}

func (s *DBStorage) UpdateUserPassword(ctx context.Context, id uint, password string) (*shop.User, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&shop.User{}).Where("id = ?", id).Update("password", password)
	if res.Error != nil {
		return nil, wrap("update user password", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.GetUser(ctx, id)
}

// ============================================================
// Products
// ============================================================

func (s *DBStorage) GetProduct(ctx context.Context, id uint) (*shop.Product, error) {
	var p shop.Product
	found, err := first(s.db.WithContext(ctx), &p, "id = ?", id)
	if err != nil || !found {
		return nil, wrap("get product", err)
	}
	return &p, nil
}

func (s *DBStorage) GetProducts(ctx context.Context, filter shop.ProductFilter) ([]shop.Product, error) {
	q := s.db.WithContext(ctx).Model(&shop.Product{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ComingSoon != nil {
		q = q.Where("coming_soon = ?", *filter.ComingSoon)
	}
	products := []shop.Product{}
	if err := q.Order("id").Find(&products).Error; err != nil {
		return nil, wrap("get products", err)
	}
	return products, nil
}

func (s *DBStorage) CreateProduct(ctx context.Context, in shop.NewProduct) (*shop.Product, error) {
	p := shop.Product{
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
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, wrap("create product", err)
	}
	return &p, nil
}

func (s *DBStorage) UpdateProduct(ctx context.Context, id uint, patch shop.ProductPatch) (*shop.Product, error) {
	db := s.db.WithContext(ctx)
	var p shop.Product
	found, err := first(db, &p, "id = ?", id)
	if err != nil || !found {
		return nil, wrap("update product", err)
	}
	patch.Apply(&p)
	// A plain update never re-creates a row deleted since it was read.
	res := db.Model(&p).Select("*").Omit("id", "created_at").Updates(&p)
	if res.Error != nil {
		return nil, wrap("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &p, nil
}

func (s *DBStorage) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&shop.SupplierInventory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&shop.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&shop.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, wrap("delete product", err)
	}
	return removed, nil
}

// ============================================================
// Orders
// ============================================================

func (s *DBStorage) GetOrder(ctx context.Context, id uint) (*shop.Order, error) {
	var o shop.Order
	found, err := first(s.db.WithContext(ctx), &o, "id = ?", id)
	if err != nil || !found {
		return nil, wrap("get order", err)
	}
	return &o, nil
}

func (s *DBStorage) GetOrders(ctx context.Context, filter shop.OrderFilter) ([]shop.Order, error) {
	q := s.db.WithContext(ctx).Model(&shop.Order{})
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	orders := []shop.Order{}
	if err := q.Order("id").Find(&orders).Error; err != nil {
		return nil, wrap("get orders", err)
	}
	return orders, nil
}

func (s *DBStorage) CreateOrder(ctx context.Context, in shop.NewOrder) (*shop.Order, error) {
	o := shop.Order{
		CustomerID:       in.CustomerID,
		TotalAmount:      in.TotalAmount,
		Status:           in.Status,
		PaymentStatus:    in.PaymentStatus,
		PaymentReference: in.PaymentReference,
		OrderDate:        s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&o).Error; err != nil {
		return nil, wrap("create order", err)
	}
	return &o, nil
}

func (s *DBStorage) UpdateOrder(ctx context.Context, id uint, patch shop.OrderPatch) (*shop.Order, error) {
	db := s.db.WithContext(ctx)
	var o shop.Order
	found, err := first(db, &o, "id = ?", id)
	if err != nil || !found {
		return nil, wrap("update order", err)
	}
	patch.Apply(&o)
	res := db.Model(&o).Select("total_amount", "status", "payment_status").Updates(&o)
	if res.Error != nil {
		return nil, wrap("update order", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &o, nil
}

func (s *DBStorage) DeleteOrder(ctx context.Context, id uint) (bool, error) {
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&shop.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&shop.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, wrap("delete order", err)
	}
	return removed, nil
}

func (s *DBStorage) GetOrderItems(ctx context.Context, orderID uint) ([]shop.OrderItem, error) {
	items := []shop.OrderItem{}
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
		return nil, wrap("get order items", err)
	}
	return items, nil
}

func (s *DBStorage) AddOrderItem(ctx context.Context, in shop.NewOrderItem) (*shop.OrderItem, error) {
	it := shop.OrderItem{
		OrderID:   in.OrderID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Size:      in.Size,
		Color:     in.Color,
	}
	if err := s.db.WithContext(ctx).Create(&it).Error; err != nil {
		return nil, wrap("add order item", err)
	}
	return &it, nil
}

// ============================================================
// Carts
// ============================================================

func (s *DBStorage) GetCart(ctx context.Context, userID uint) (*shop.Cart, error) {
	var c shop.Cart
	found, err := first(s.db.WithContext(ctx), &c, "user_id = ?", userID)
	if err != nil || !found {
		return nil, wrap("get cart", err)
	}
	return &c, nil
}

func (s *DBStorage) UpdateCart(ctx context.Context, userID uint, items []shop.CartItem) (*shop.Cart, error) {
	if items == nil {
		items = []shop.CartItem{}
	}
	db := s.db.WithContext(ctx)
	var c shop.Cart
	found, err := first(db, &c, "user_id = ?", userID)
	if err != nil {
		return nil, wrap("update cart", err)
	}
	if !found {
		c = shop.Cart{UserID: userID}
	}
	c.Items = items
	c.UpdatedAt = s.now()
	if err := db.Save(&c).Error; err != nil {
		return nil, wrap("update cart", err)
	}
	return &c, nil
}

// ============================================================
// Inventory
// ============================================================

func (s *DBStorage) GetInventory(ctx context.Context, supplierID uint) ([]shop.SupplierInventory, error) {
	rows := []shop.SupplierInventory{}
	if err := s.db.WithContext(ctx).Where("supplier_id = ?", supplierID).Order("id").Find(&rows).Error; err != nil {
		return nil, wrap("get inventory", err)
	}
	return rows, nil
}

func (s *DBStorage) UpdateInventory(ctx context.Context, supplierID, productID uint, stock int) (*shop.SupplierInventory, error) {
	row := shop.SupplierInventory{
		SupplierID:     supplierID,
		ProductID:      productID,
		AvailableStock: stock,
		UpdatedAt:      s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "supplier_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"available_stock", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		// The returned id is unreliable after an upsert on some drivers.
		var stored shop.SupplierInventory
		if err := tx.Where("supplier_id = ? AND product_id = ?", supplierID, productID).First(&stored).Error; err != nil {
			return err
		}
		row = stored
		return tx.Model(&shop.Product{}).Where("id = ?", productID).Update("stock", stock).Error
	})
	if err != nil {
		return nil, wrap("update inventory", err)
	}
	return &row, nil
}

// ============================================================
// Reviews
// ============================================================

func (s *DBStorage) CreateReview(ctx context.Context, in shop.NewReview) (*shop.Review, error) {
	r := shop.Review{
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	}
	if in.CustomerID > 0 {
		id := uint(in.CustomerID)
		r.CustomerID = &id
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, wrap("create review", err)
	}
	return &r, nil
}

func (s *DBStorage) GetReviews(ctx context.Context, productID *uint) ([]shop.Review, error) {
	q := s.db.WithContext(ctx).Model(&shop.Review{})
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	reviews := []shop.Review{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&reviews).Error; err != nil {
		return nil, wrap("get reviews", err)
	}
	return reviews, nil
}

func (s *DBStorage) GetTopReviews(ctx context.Context, limit int) ([]shop.Review, error) {
	reviews := []shop.Review{}
	err := s.db.WithContext(ctx).
		Order("rating DESC").Order("id").
		Limit(normalizeLimit(limit, DefaultTopReviewsLimit)).
		Find(&reviews).Error
	if err != nil {
		return nil, wrap("get top reviews", err)
	}
	return reviews, nil
}

func (s *DBStorage) DeleteReview(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&shop.Review{}, id)
	if res.Error != nil {
		return false, wrap("delete review", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ============================================================
// Derived queries
// ============================================================

type productScore struct {
	ProductID uint
	Score     float64
}

func (s *DBStorage) rankActive(ctx context.Context, scoreQuery *gorm.DB, limit int) ([]shop.Product, error) {
	db := s.db.WithContext(ctx)
	active := []shop.Product{}
	if err := db.Where("is_active = ?", true).Order("id").Find(&active).Error; err != nil {
		return nil, err
	}
	var rows []productScore
	if err := scoreQuery.Scan(&rows).Error; err != nil {
		return nil, err
	}
	scores := make(map[uint]float64, len(rows))
	for _, r := range rows {
		scores[r.ProductID] = r.Score
	}
	return rankProducts(active, scores, normalizeLimit(limit, DefaultRankingLimit)), nil
}

func (s *DBStorage) GetTrendingProducts(ctx context.Context, limit int) ([]shop.Product, error) {
	q := s.db.WithContext(ctx).Model(&shop.Review{}).
		Select("product_id, AVG(rating) AS score").
		Group("product_id")
	products, err := s.rankActive(ctx, q, limit)
	if err != nil {
		return nil, wrap("get trending products", err)
	}
	return products, nil
}

func (s *DBStorage) GetTopSellingProducts(ctx context.Context, limit int) ([]shop.Product, error) {
	q := s.db.WithContext(ctx).Model(&shop.OrderItem{}).
		Select("product_id, SUM(quantity) AS score").
		Group("product_id")
	products, err := s.rankActive(ctx, q, limit)
	if err != nil {
		return nil, wrap("get top selling products", err)
	}
	return products, nil
}

// ============================================================
// Sessions and workflows
// ============================================================

func (s *DBStorage) SessionStore() fiber.Storage {
	return s.sessions
}

func (s *DBStorage) Atomically(ctx context.Context, fn func(Storage) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DBStorage{db: tx, sessions: s.sessions, now: s.now})
	})
}

func (s *DBStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
