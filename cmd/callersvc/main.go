// cmd/callersvc/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nats-io/nats.go"

	config "github.com/tambolahq/tambola-services/configs"
	"github.com/tambolahq/tambola-services/internal/comm"
	mongodb "github.com/tambolahq/tambola-services/internal/db"
	natscli "github.com/tambolahq/tambola-services/internal/nats"
	"github.com/tambolahq/tambola-services/internal/roomsvc/broker"
	"github.com/tambolahq/tambola-services/internal/roomsvc/db"
	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/service"
	"github.com/tambolahq/tambola-services/internal/roomsvc/store"
)

const SERVICE_NAME = "caller"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
	rand.Seed(time.Now().UnixNano())
}

// callers tracks the running auto-call loops by room id.
var (
	callersMu sync.Mutex
	callers   = map[string]context.CancelFunc{}
)

func main() {
	roomStore, cleanup := openStore()
	defer cleanup()

	roomService := service.NewRoomService(roomStore)

	// connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Conn.Close()
	log.Infof("NATS connected at %s", n.Url)

	b := broker.NewBroker(n.Conn, roomService)
	interval := config.AutoCallInterval()

	// subscribe to auto-call control events
	_, err = n.Conn.Subscribe(natscli.TopicSocket, func(msg *nats.Msg) {
		var ws comm.WSMessage
		if err := json.Unmarshal(msg.Data, &ws); err != nil {
			log.Errorf("invalid WSMessage: %v", err)
			return
		}

		switch ws.Type {
		case "auto-call-start":
			var req comm.RoomRequest
			if err := json.Unmarshal(ws.Data, &req); err != nil {
				log.Errorf("invalid auto-call-start payload: %v", err)
				return
			}
			startCaller(b, roomService, models.NormalizeRoomID(req.RoomID), interval)
		case "auto-call-stop":
			var req comm.RoomRequest
			if err := json.Unmarshal(ws.Data, &req); err != nil {
				log.Errorf("invalid auto-call-stop payload: %v", err)
				return
			}
			stopCaller(models.NormalizeRoomID(req.RoomID))
		}
	})
	if err != nil {
		log.Fatalf("subscribe error: %v", err)
	}

	select {} // block forever
}

// startCaller drives CallNext on a fixed cadence until the game is over, the
// room disappears or an auto-call-stop arrives.
func startCaller(b *broker.Broker, svc *service.RoomService, roomID string, interval time.Duration) {
	callersMu.Lock()
	if _, running := callers[roomID]; running {
		callersMu.Unlock()
		log.Infof("caller already running for room %s", roomID)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	callers[roomID] = cancel
	callersMu.Unlock()

	log.Infof("starting caller for room %s every %s", roomID, interval)

	go func() {
		defer stopCaller(roomID)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				callCtx, cancelCall := context.WithTimeout(ctx, 5*time.Second)
				room, n, err := svc.CallNext(callCtx, roomID)
				cancelCall()

				if err != nil {
					if errors.Is(err, models.ErrNoNumbersLeft) {
						log.Infof("caller done for room %s", roomID)
						b.PublishGameOver(roomID)
						return
					}
					if errors.Is(err, models.ErrRoomNotFound) {
						log.Infof("room %s gone, stopping caller", roomID)
						return
					}
					log.Errorf("call-next for room %s: %v", roomID, err)
					continue
				}

				b.PublishBingoCall(room, n)
			}
		}
	}()
}

func stopCaller(roomID string) {
	callersMu.Lock()
	defer callersMu.Unlock()
	if cancel, ok := callers[roomID]; ok {
		cancel()
		delete(callers, roomID)
		log.Infof("caller stopped for room %s", roomID)
	}
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
		log.Printf("pg connection established successfully")
		return store.NewPostgresStore(pool, retention), pool.Close

	case "mongo":
		database, cancel, err := mongodb.ConnectToDB()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		log.Printf("mongo connection established successfully")
		return store.NewMongoStore(database, retention), func() {
			cancel()
			database.Client().Disconnect(context.Background())
		}

	default:
		// an in-memory store is per process, callers must share the room
		// service store in real deployments
		log.Warn("using in-memory room store, auto-call state is local to this process")
		return store.NewMemoryStore(retention), func() {}
	}
}
