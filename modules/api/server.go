package api

import (
	"time"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
	"github.com/emmanuel197/kuandorwear-media/modules/auth"
	"github.com/emmanuel197/kuandorwear-media/modules/orderevents"
	"github.com/emmanuel197/kuandorwear-media/modules/payment"
	"github.com/emmanuel197/kuandorwear-media/modules/storage"
	"github.com/emmanuel197/kuandorwear-media/modules/uploads"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultAuthRateLimit = 10
	// Leaves room for multipart framing around a maximum-size image.
	bodyLimitSlack = 1 << 20
	rankingTimeout = 10 * time.Second
)

// deps are the collaborators the handlers need. Feed and Images are optional.
type deps struct {
	Store    storage.Storage
	Auth     auth.AuthPort
	Payments payment.Gateway
	Feed     orderevents.FeedPort
	Images   *uploads.Service
	Events   publisher
	Sessions fiber.Storage
}

type server struct {
	cfg      Config
	store    storage.Storage
	auth     auth.AuthPort
	payments payment.Gateway
	feed     orderevents.FeedPort
	images   *uploads.Service
	events   publisher
	sessions *session.Store
	limits   fiber.Storage
	validate *validator.Validate
	rankings singleflight.Group
}

func newServer(cfg Config, d deps) *server {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = defaultAuthRateLimit
	}
	sessions := d.Sessions
	if sessions == nil {
		sessions = d.Store.SessionStore()
	}
	events := d.Events
	if events == nil {
		events = noopPublisher{}
	}
	return &server{
		cfg:      cfg,
		store:    d.Store,
		auth:     d.Auth,
		payments: d.Payments,
		feed:     d.Feed,
		images:   d.Images,
		events:   events,
		sessions: newSessionStore(sessions, cfg.SessionTTL, cfg.CookieSecure),
		limits:   sessions,
		validate: newValidator(),
	}
}

// newApp builds the Fiber application with every route mounted.
func (s *server) newApp() *fiber.App {
	maxUpload := int64(uploads.DefaultMaxBytes)
	if s.images != nil {
		maxUpload = s.images.MaxBytes()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Kuandorwear Storefront",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		BodyLimit:             int(maxUpload) + bodyLimitSlack,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	s.routes(app)
	return app
}

func (s *server) routes(app *fiber.App) {
	app.Get("/health", s.Health)
	app.Get("/uploads/:id/:name", s.ServeImage)

	api := app.Group("/api")

	customer := s.RequireRole(shop.RoleCustomer)
	supplier := s.RequireRole(shop.RoleSupplier)
	admin := s.RequireRole(shop.RoleAdmin)
	catalog := s.RequireRole(shop.RoleSupplier, shop.RoleAdmin)
	anyone := s.RequireAuth()

	// Authentication
	api.Post("/register", s.authLimiter("register"), s.Register)
	api.Post("/login", s.authLimiter("login"), s.Login)
	api.Post("/logout", s.Logout)
	api.Get("/user", anyone, s.CurrentUser)

	// Catalog
	api.Get("/products", guardWhen("includeInactive", admin), s.ListProducts)
	api.Get("/products/trending", s.TrendingProducts)
	api.Get("/products/top-selling", s.TopSellingProducts)
	api.Get("/products/:id", s.GetProduct)
	api.Get("/products/:id/reviews", s.ListProductReviews)
	api.Post("/products/:id/reviews", customer, s.CreateReview)
	api.Post("/products", catalog, s.CreateProduct)
	api.Patch("/products/:id", catalog, s.UpdateProduct)
	api.Delete("/products/:id", catalog, s.DeleteProduct)
	api.Get("/supplier/products", supplier, s.SupplierProducts)
	api.Get("/reviews/top", s.TopReviews)

	// Orders
	api.Get("/orders", anyone, s.ListOrders)
	api.Get("/orders/:id", anyone, s.GetOrder)
	api.Post("/orders", customer, s.PlaceOrder)
	api.Patch("/orders/:id", catalog, s.UpdateOrder)
	api.Delete("/orders/:id", admin, s.DeleteOrder)

	// Cart
	api.Get("/cart", customer, s.GetCart)
	api.Put("/cart", customer, s.ReplaceCart)
	api.Delete("/cart", customer, s.ClearCart)

	// Inventory
	api.Get("/inventory", catalog, s.ListInventory)
	api.Put("/inventory/:productId", catalog, s.SetInventory)

	// Administration
	adminGroup := api.Group("/admin", admin)
	adminGroup.Get("/users", s.ListUsers)
	adminGroup.Get("/reviews", s.ListAllReviews)
	adminGroup.Post("/reviews", s.CreateAdminReview)
	adminGroup.Delete("/reviews/:id", s.DeleteReview)
	adminGroup.Get("/stats", s.Stats)

	// Uploads and payment
	api.Post("/upload", catalog, s.UploadImage)
	api.Post("/payment/initialize", customer, s.InitializePayment)
	api.Get("/payment/verify/:reference", customer, s.VerifyPayment)
}

// guardWhen applies guard only to requests whose boolean query flag is set.
func guardWhen(flag string, guard fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := queryBool(c, flag)
		if err != nil {
			return err
		}
		if set != nil && *set {
			return guard(c)
		}
		return c.Next()
	}
}

// authLimiter throttles credential endpoints per client IP.
func (s *server) authLimiter(name string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        s.cfg.AuthRateLimit,
		Expiration: time.Minute,
		Storage:    s.limits,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ratelimit:" + name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return &APIError{
				Status:  fiber.StatusTooManyRequests,
				Code:    "rate_limited",
				Message: "Too many attempts, please try again later",
			}
		},
	})
}

// Health handles GET /health.
func (s *server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"module": "api",
	})
}
