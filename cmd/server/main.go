package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodcourt/api/internal/config"
	"github.com/foodcourt/api/internal/database"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/events"
	"github.com/foodcourt/api/internal/kv"
	"github.com/foodcourt/api/internal/records"
	"github.com/foodcourt/api/internal/router"
	"github.com/foodcourt/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// sessionTTL bounds how long an idle cart survives in Redis.
const sessionTTL = 7 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record backend
	var backend records.Backend
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("Unable to ping database: %v", err)
		}
		backend = database.New(pool, enum.Tables...)
		log.Println("Using PostgreSQL record store")
	case cfg.RecordAPIURL != "":
		backend = records.NewHTTPClient(cfg.RecordAPIURL, nil)
		log.Printf("Using record API at %s", cfg.RecordAPIURL)
	default:
		backend = records.NewMemory(enum.Tables...)
		log.Println("WARNING: Using in-memory record store. Data is lost on restart.")
	}

	// Cart and session store
	var store kv.Store = kv.NewMemory()
	if cfg.RedisURL != "" {
		rdb, err := kv.DialRedis(ctx, cfg.RedisURL, "foodcourt:", sessionTTL)
		if err != nil {
			log.Fatalf("Unable to connect to Redis: %v", err)
		}
		defer rdb.Close()
		store = rdb
		log.Println("Using Redis session store")
	}

	// Order events
	hub := ws.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kw := events.NewKafka(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		defer kw.Close()
		publishers = append(publishers, kw)
		log.Printf("Publishing order events to Kafka topic %s", cfg.KafkaTopic)
	}
	if cfg.AMQPURL != "" {
		mq, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("Unable to connect to RabbitMQ: %v", err)
		}
		defer mq.Close()
		publishers = append(publishers, mq)
		log.Printf("Publishing order events to AMQP exchange %s", cfg.AMQPExchange)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, backend, store, hub, publishers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}
}
