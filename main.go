package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Shubhams-here/Dabba-Drop/internal/api"
	"github.com/Shubhams-here/Dabba-Drop/internal/cache"
	"github.com/Shubhams-here/Dabba-Drop/internal/captcha"
	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/db"
	"github.com/Shubhams-here/Dabba-Drop/internal/email"
	"github.com/Shubhams-here/Dabba-Drop/internal/hub"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
	"github.com/Shubhams-here/Dabba-Drop/internal/storage"
	"github.com/Shubhams-here/Dabba-Drop/internal/tasks"
)

func main() {
	runMode := flag.String("m", "all", "run mode: api, bg, img or all")
	flag.Parse()

	switch *runMode {
	case "api", "bg", "img", "all":
	default:
		log.Fatalf("Unknown run mode %q", *runMode)
	}

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, database, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.DisconnectDB(mongoClient)

	if err := ensureIndexes(database); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.DisconnectRedis(redisClient)

	// Mock services capture outbound mail in Redis for end-to-end
	// assertions instead of talking to an SMTP relay.
	var sender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		sender = email.NewRedisSender(redisClient, cfg)
	} else {
		sender = email.NewSMTPSender(cfg)
	}
	if path := os.Getenv("LOG_EMAILS_TO_FILE"); path != "" {
		fileSender, err := email.NewFileEmailSender(path, cfg)
		if err != nil {
			log.Fatalf("Failed to open email log file: %v", err)
		}
		sender = email.NewCompositeEmailSender(sender, fileSender)
	}

	var store storage.Storage
	if cfg.AwsS3Bucket != "" {
		store, err = storage.NewS3Storage(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to set up object storage: %v", err)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	wsHub := hub.NewHub(logger)

	taskClient := tasks.NewClient(cfg)
	defer taskClient.Close()
	notifier := tasks.NewAsynqNotifier(taskClient)

	userService := services.NewUserService(database)
	contactService := services.NewContactService(database)
	shopService := services.NewShopService(database)
	settingsService := services.NewSettingsService(database)
	templateService := services.NewEmailTemplateService(database)
	orderService := services.NewOrderService(database, userService, shopService, wsHub, notifier, cfg.DeliveryOtpTTL)

	shutdown := make(chan struct{}, 1)

	// Private operational surface, bound separately from the public API.
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(redisClient, shutdown),
	}
	go func() {
		log.Printf("Service API listening on :%s", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API failed: %v", err)
		}
	}()

	var apiSrv *http.Server
	if *runMode == "api" || *runMode == "all" {
		router := api.SetupRouter(api.Deps{
			Cfg:        cfg,
			Users:      userService,
			Contacts:   contactService,
			Orders:     orderService,
			Shops:      shopService,
			Settings:   settingsService,
			Notifier:   notifier,
			Store:      store,
			TaskClient: taskClient,
			Hub:        wsHub,
			Verifier:   captcha.NewTurnstileVerifier(cfg),
		})
		apiSrv = &http.Server{Addr: ":" + cfg.ApiPort, Handler: router}
		go func() {
			log.Printf("API listening on :%s", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API server failed: %v", err)
			}
		}()
	}

	var worker *asynq.Server
	if *runMode == "bg" || *runMode == "img" || *runMode == "all" {
		processor := tasks.NewTaskProcessor(cfg, templateService, shopService, sender, store)
		srv, mux := tasks.SetupServer(cfg, processor)
		if *runMode == "bg" {
			// email-only worker: rebuild the mux without the image handler
			mux = asynq.NewServeMux()
			mux.HandleFunc(tasks.TypeEmailDelivery, processor.HandleEmailDeliveryTask)
		}
		if *runMode == "img" {
			mux = asynq.NewServeMux()
			mux.HandleFunc(tasks.TypeImageProcess, processor.HandleImageProcessTask)
		}
		worker = srv
		go func() {
			log.Printf("Task worker starting in %s mode", *runMode)
			if err := srv.Run(mux); err != nil {
				log.Fatalf("Task worker failed: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Printf("Received signal %v, shutting down", s)
	case <-shutdown:
		log.Printf("Shutdown requested via service API")
	}

	// Order matters: stop pushing events before tearing the HTTP
	// listeners down, then drain the worker.
	wsHub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if apiSrv != nil {
		if err := apiSrv.Shutdown(ctx); err != nil {
			log.Printf("API shutdown error: %v", err)
		}
	}
	if err := serviceSrv.Shutdown(ctx); err != nil {
		log.Printf("Service API shutdown error: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}

	log.Println("Shutdown complete")
}

// ensureIndexes creates the indexes the services rely on. Safe to call
// on every start.
func ensureIndexes(database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	_, err = database.Collection("contacts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("contacts indexes: %w", err)
	}

	_, err = database.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "shopOrders.owner", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("orders indexes: %w", err)
	}

	_, err = database.Collection("api_endpoints_config").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "endpoint", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("endpoint config index: %w", err)
	}
	return nil
}
