package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/emmanuel197/kuandorwear-media/config"
	apimod "github.com/emmanuel197/kuandorwear-media/modules/api"
	authmod "github.com/emmanuel197/kuandorwear-media/modules/auth"
	ordereventsmod "github.com/emmanuel197/kuandorwear-media/modules/orderevents"
	paymentmod "github.com/emmanuel197/kuandorwear-media/modules/payment"
	storagemod "github.com/emmanuel197/kuandorwear-media/modules/storage"
	uploadsmod "github.com/emmanuel197/kuandorwear-media/modules/uploads"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("=== Kuandorwear Storefront ===")
	log.Printf("HTTP Port: %d", cfg.HTTP.Port)
	log.Printf("Storage Driver: %s", cfg.Storage.Driver)
	log.Printf("Session Store: %s", cfg.Session.Store)
	log.Printf("Uploads Dir: %s (max %d bytes)", cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if len(cfg.Kafka.Brokers) > 0 {
		log.Printf("Kafka: %v (topic %s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Embedded NATS JetStream backs the event bus and the image bucket.
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(cfg.Uploads.Dir),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	filesPlugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        uploadsmod.BucketName,
				Description: "Product images",
				MaxBytes:    1024 * 1024 * 1024,
				Storage:     fsjetstream.FileStorage,
				Compression: true,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create file storage plugin: %v", err)
	}
	if err := app.RegisterPlugin(filesPlugin, "files"); err != nil {
		log.Fatalf("Failed to register file storage plugin: %v", err)
	}

	storePlugin := storagemod.NewPluginModule(storagemod.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.StorageDSN(),
		Debug:  cfg.DB.Debug,
	})
	if err := app.RegisterPlugin(storePlugin, "store"); err != nil {
		log.Fatalf("Failed to register storage plugin: %v", err)
	}

	orderEventsModule := ordereventsmod.NewModule(ordereventsmod.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	authModule := authmod.NewModule(authmod.AdminConfig{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		Email:    cfg.Admin.Email,
	})
	paymentModule := paymentmod.NewModule(cfg.Payment.CallbackBaseURL)
	uploadsModule := uploadsmod.NewModule(cfg.Uploads.MaxBytes, app.Logger())
	apiModule := apimod.NewModule(apimod.Config{
		Port:         cfg.HTTP.Port,
		SessionTTL:   cfg.Session.TTL,
		CookieSecure: cfg.Session.CookieSecure,
		SessionStore: cfg.Session.Store,
		RedisAddr:    cfg.Redis.Addr,
	})
	apiModule.SetUploadsModule(uploadsModule)

	app.Register(orderEventsModule)
	app.Register(authModule)
	app.Register(paymentModule)
	app.Register(uploadsModule)
	app.Register(apiModule)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", cfg.HTTP.Port)
	log.Println("Endpoints:")
	log.Println("  POST   /api/register, /api/login, /api/logout   - Sessions")
	log.Println("  GET    /api/products[/trending|/top-selling|/:id] - Catalog")
	log.Println("  POST   /api/orders                               - Checkout")
	log.Println("  GET    /api/admin/stats                          - Dashboard")
	log.Println("  POST   /api/upload                               - Product images")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
