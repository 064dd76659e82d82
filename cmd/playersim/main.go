// cmd/playersim/main.go
//
// Simulates one participant: joins (or creates) a room, generates tickets,
// polls the shared store for snapshots and, as host with AUTO_CALL=1, calls
// numbers on the configured cadence. Useful for exercising a deployment the
// way browser tabs exercised the original game.
package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/tambolahq/tambola-services/configs"
	mongodb "github.com/tambolahq/tambola-services/internal/db"
	"github.com/tambolahq/tambola-services/internal/roomsvc/db"
	"github.com/tambolahq/tambola-services/internal/roomsvc/game"
	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/service"
	"github.com/tambolahq/tambola-services/internal/roomsvc/store"
	roomsync "github.com/tambolahq/tambola-services/internal/roomsvc/sync"
)

const SERVICE_NAME = "playersim"

func init() {
	config.Logging(SERVICE_NAME)
	config.LoadEnv(SERVICE_NAME)
	rand.Seed(time.Now().UnixNano())
}

func main() {
	roomStore, cleanup := openStore()
	defer cleanup()

	svc := service.NewRoomService(roomStore)
	ctx := context.Background()

	username := os.Getenv("PLAYER_NAME")
	if username == "" {
		log.Fatal("PLAYER_NAME is required")
	}

	roomID := os.Getenv("ROOM_ID")
	var room *models.Room
	var err error
	if roomID == "" {
		room, err = svc.CreateRoom(ctx, "", username)
		if err != nil {
			log.Fatalf("create room: %v", err)
		}
		log.Infof("created room %s, share this code", room.ID)
	} else {
		room, err = svc.JoinRoom(ctx, roomID, username)
		if err != nil {
			log.Fatalf("join room %s: %v", roomID, err)
		}
		log.Infof("joined room %s with %d players", room.ID, len(room.Players))
	}

	tickets, err := svc.GenerateTickets(ctx, room.ID, username, 1)
	if err != nil {
		log.Fatalf("generate tickets: %v", err)
	}
	for _, tk := range tickets {
		log.Infof("ticket: %v", tk)
	}

	rs := roomsync.New(roomStore, room.ID, username, config.PollInterval())
	rs.OnUpdate = func(gs models.GameState, players []models.Player) {
		if gs.CurrentNumber != nil {
			log.Infof("current number %d (%s), %d called, %d players",
				*gs.CurrentNumber, game.NumberToWords(*gs.CurrentNumber),
				len(gs.CalledNumbers), len(players))
		}
	}
	rs.Start(ctx)

	stopAuto := make(chan struct{})
	if os.Getenv("AUTO_CALL") == "1" {
		go autoCall(ctx, rs, stopAuto)
	}

	// leave the room on interrupt
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	close(stopAuto)
	rs.Stop()
	log.Infof("%s left room %s", username, room.ID)
}

// autoCall mimics the host's auto mode: pick a random available number from
// the local snapshot, apply it locally and push the new state to the store.
func autoCall(ctx context.Context, rs *roomsync.RoomSync, stop <-chan struct{}) {
	ticker := time.NewTicker(config.AutoCallInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			gs, _ := rs.Snapshot()

			n, err := game.Next(gs)
			if errors.Is(err, models.ErrNoNumbersLeft) {
				log.Info("all numbers called, game over")
				return
			}

			gs, err = game.Call(gs, n)
			if err != nil {
				log.Errorf("call %d: %v", n, err)
				continue
			}
			if err := rs.Push(ctx, gs); err != nil {
				log.Errorf("push game state: %v", err)
			}
		}
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
		return store.NewPostgresStore(pool, retention), pool.Close

	case "mongo":
		database, cancel, err := mongodb.ConnectToDB()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		return store.NewMongoStore(database, retention), func() {
			cancel()
			database.Client().Disconnect(context.Background())
		}

	default:
		log.Warn("using in-memory room store, other participants cannot see this room")
		return store.NewMemoryStore(retention), func() {}
	}
}
