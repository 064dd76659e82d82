package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/tambolahq/tambola-services/configs"
	mongodb "github.com/tambolahq/tambola-services/internal/db"
	natscli "github.com/tambolahq/tambola-services/internal/nats"
	"github.com/tambolahq/tambola-services/internal/roomsvc/broker"
	"github.com/tambolahq/tambola-services/internal/roomsvc/db"
	"github.com/tambolahq/tambola-services/internal/roomsvc/handlers"
	"github.com/tambolahq/tambola-services/internal/roomsvc/service"
	"github.com/tambolahq/tambola-services/internal/roomsvc/store"
)

const SERVICE_NAME = "room"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	roomStore, cleanup := openStore()
	defer cleanup()

	roomService := service.NewRoomService(roomStore)

	// Connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// push channel: room commands in, notifications out
	b := broker.NewBroker(n.Conn, roomService)
	sub, err := b.SubscribeSocketService(natscli.TopicSocket)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	h := handlers.NewHandler(roomService)
	h.InitAuth()
	h.SetRoutes(r)

	server := &http.Server{
		Addr:         ":" + os.Getenv("SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// openStore selects the room store backend by STORE_DRIVER.
func openStore() (store.RoomStore, func()) {
	retention := config.RoomRetention()

	switch os.Getenv("STORE_DRIVER") {
	case "postgres":
		pool, err := db.Connect(context.Background())
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		if err := store.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalf("Failed to prepare schema: %v", err)
		}
		log.Printf("pg connection established successfully")
		return store.NewPostgresStore(pool, retention), pool.Close

	case "mongo":
		database, cancel, err := mongodb.ConnectToDB()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		if err := mongodb.EnsureRoomTTLIndex(context.Background(), database); err != nil {
			log.Fatalf("Failed to ensure TTL index: %v", err)
		}
		log.Printf("mongo connection established successfully")
		return store.NewMongoStore(database, retention), func() {
			cancel()
			database.Client().Disconnect(context.Background())
		}

	default:
		log.Printf("using in-memory room store")
		return store.NewMemoryStore(retention), func() {}
	}
}
