package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/tambolahq/tambola-services/internal/comm"
	natscli "github.com/tambolahq/tambola-services/internal/nats"
	"github.com/tambolahq/tambola-services/internal/roomsvc/game"
	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/service"
)

const requestTimeout = 10 * time.Second

// Broker consumes room commands from the socket service topic, applies them
// through the room service and pushes notifications back for websocket
// fan-out. This is the push channel that complements polling sync.
type Broker struct {
	Conn        *nats.Conn
	RoomService *service.RoomService
}

func NewBroker(nc *nats.Conn, roomService *service.RoomService) *Broker {
	return &Broker{
		Conn:        nc,
		RoomService: roomService,
	}
}

func (b *Broker) SubscribeSocketService(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleMessage)
}

// handles message coming from socket
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch msg.Type {
	case "create-room":
		var req comm.RoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding create-room request: %s", err)
			return
		}

		room, err := b.RoomService.CreateRoom(ctx, req.RoomID, req.Username)
		if err != nil {
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.publishRoom("room-created", room, msg.SocketId)

	case "join-room":
		var req comm.RoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding join-room request: %s", err)
			return
		}

		room, err := b.RoomService.JoinRoom(ctx, req.RoomID, req.Username)
		if err != nil {
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.publishRoom("room-joined", room, msg.SocketId)
		b.publishRoomUpdate(room)

	case "leave-room":
		var req comm.RoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding leave-room request: %s", err)
			return
		}

		if err := b.RoomService.LeaveRoom(ctx, req.RoomID, req.Username); err != nil {
			// leave is best-effort, the room may already be gone
			log.Warnf("leave-room %s for %s: %v", req.RoomID, req.Username, err)
			return
		}
		if room, err := b.RoomService.GetRoom(ctx, req.RoomID); err == nil {
			b.publishRoomUpdate(room)
		}

	case "get-room":
		var req comm.RoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding get-room request: %s", err)
			return
		}

		room, err := b.RoomService.GetRoom(ctx, req.RoomID)
		if err != nil {
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.publishRoom("room-data", room, msg.SocketId)

	case "call-number":
		var req comm.CallRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding call-number request: %s", err)
			return
		}

		room, err := b.RoomService.CallNumber(ctx, req.RoomID, req.Number)
		if err != nil {
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.PublishBingoCall(room, req.Number)

	case "call-next":
		var req comm.CallRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding call-next request: %s", err)
			return
		}

		room, n, err := b.RoomService.CallNext(ctx, req.RoomID)
		if err != nil {
			if errors.Is(err, models.ErrNoNumbersLeft) {
				b.PublishGameOver(req.RoomID)
				return
			}
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.PublishBingoCall(room, n)

	case "reset-game":
		var req comm.RoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding reset-game request: %s", err)
			return
		}

		room, err := b.RoomService.ResetGame(ctx, req.RoomID)
		if err != nil {
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.publishRoomUpdate(room)

	case "generate-tickets":
		var req comm.TicketRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding generate-tickets request: %s", err)
			return
		}

		tickets, err := b.RoomService.GenerateTickets(ctx, req.RoomID, req.PlayerID, req.Count)
		if err != nil {
			b.publishError(msg.Type, err, msg.SocketId)
			return
		}
		b.publish("tickets", comm.TicketData{
			RoomID:  models.NormalizeRoomID(req.RoomID),
			Player:  req.PlayerID,
			Tickets: tickets,
		}, msg.SocketId)

		if room, err := b.RoomService.GetRoom(ctx, req.RoomID); err == nil {
			b.publishRoomUpdate(room)
		}
	}
}

// PublishBingoCall announces a called number with its history and spoken form.
func (b *Broker) PublishBingoCall(room *models.Room, n int) {
	c := comm.CallMessage{
		RoomID:  room.ID,
		Number:  n,
		Words:   game.NumberToWords(n),
		History: append([]int(nil), room.GameState.CalledNumbers...),
	}
	b.publish("bingo-call", c, "")
	b.publishRoomUpdate(room)
}

func (b *Broker) publishRoomUpdate(room *models.Room) {
	b.publish("room-update", comm.RoomNotification{
		RoomID: room.ID,
		Type:   "room-update",
		Room:   room,
	}, "")
}

// PublishGameOver announces that no numbers remain to be called.
func (b *Broker) PublishGameOver(roomID string) {
	b.publish("game-over", comm.RoomNotification{
		RoomID: models.NormalizeRoomID(roomID),
		Type:   "game-over",
	}, "")
}

func (b *Broker) publishRoom(msgType string, room *models.Room, socketId string) {
	b.publish(msgType, comm.RoomNotification{
		RoomID: room.ID,
		Type:   msgType,
		Room:   room,
	}, socketId)
}

func (b *Broker) publishError(request string, err error, socketId string) {
	b.publish("room-error", comm.ErrorData{Request: request, Error: err.Error()}, socketId)
}

func (b *Broker) publish(msgType string, payload interface{}, socketId string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("error marshaling %s payload: %v", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error marshaling WSMessage: %v", err)
		return
	}

	if err := b.Conn.Publish(natscli.TopicRoom, raw); err != nil {
		log.Errorf("error publishing %s to %s: %v", msgType, natscli.TopicRoom, err)
	}
}
