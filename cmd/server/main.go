package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment-service/config"
	"fulfillment-service/internal/api"
	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/redisclient"
	"fulfillment-service/internal/service"
	"fulfillment-service/internal/shipping"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"
	"fulfillment-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting fulfillment service")

	tp, err := util.InitTracer("fulfillment-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	gateway := service.NewHTTPPaymentGateway(cfg.Payment.GatewayURL, cfg.Payment.APIKey)
	carriers := shipping.NewRegistry(
		shipping.NewNovaPoshta(cfg.Shipping.NovaPoshtaURL, cfg.Shipping.NovaPoshtaKey),
		shipping.NewUkrposhta(cfg.Shipping.UkrposhtaURL, cfg.Shipping.UkrposhtaKey),
	)

	orderService := service.NewOrderService(
		db,
		redisClient,
		eventPublisher,
		gateway,
		carriers,
		service.ShippingRates{Courier: cfg.Shipping.CourierFee, Carrier: cfg.Shipping.CarrierFee},
		cfg.Payment.ReturnURL,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	sweeper := worker.NewSweeper(orderService, cfg.Business.SweepInterval, cfg.Business.ReservationTimeout)
	go func() {
		if err := sweeper.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Sweeper error: %v", err)
		}
	}()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notifier := worker.NewNotifier(notifyConsumer, cfg.Notify.AdminChatURL)
	go func() {
		if err := notifier.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Notifier error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, cfg.Payment.WebhookSecret, cfg.Payment.SignatureHeader)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notifier.Stop()

	log.Println("Server exited")
}
