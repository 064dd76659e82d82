package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/tambolahq/tambola-services/internal/comm"
	natscli "github.com/tambolahq/tambola-services/internal/nats"
	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/socketsvc/broker"
)

// Ws tracks client sockets and their room registrations. Room commands are
// forwarded to the room service over NATS; notifications come back through
// the broker and are fanned out here.
type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	roomMap sync.Map // socketId -> roomId
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles one message from a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "register-room":
		s.handleRegister(socketId, message)
	case "create-room", "join-room", "leave-room", "get-room",
		"call-number", "call-next", "reset-game", "generate-tickets",
		"auto-call-start", "auto-call-stop":
		s.forward(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

// handleRegister binds the socket to a room so broadcasts reach it.
func (s *Ws) handleRegister(socketId string, msg *comm.WSMessage) {
	var payload comm.RoomRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("malformed register-room payload: %s", err)
		return
	}
	if payload.RoomID == "" {
		log.Error("register-room payload without a room id")
		return
	}
	s.StoreRoom(socketId, models.NormalizeRoomID(payload.RoomID))
	log.Infof("socket %s registered for room %s", socketId, payload.RoomID)
}

// forward pushes a client command to the room service topic. join-room and
// create-room also register the socket when the request names the room.
func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	if msg.Type == "join-room" {
		var payload comm.RoomRequest
		if err := json.Unmarshal(msg.Data, &payload); err == nil && payload.RoomID != "" {
			s.StoreRoom(socketId, models.NormalizeRoomID(payload.RoomID))
		}
	}

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(natscli.TopicSocket, bytes); err != nil {
		log.Errorf("failed to publish to NATS topic %s: %v", natscli.TopicSocket, err)
		return
	}

	log.Debugf("forwarded %s from socket %s", msg.Type, socketId)
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.roomMap.Delete(socketId)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

func (s *Ws) StoreRoom(socketId string, roomId string) {
	s.roomMap.Store(socketId, roomId)
}

func (s *Ws) GetRoom(socketId string) (string, bool) {
	room, ok := s.roomMap.Load(socketId)
	if !ok {
		return "", false
	}
	return room.(string), true
}

func (s *Ws) GetRoomSockets(roomId string) ([]string, bool) {
	var sockets []string
	found := false

	s.roomMap.Range(func(key, value interface{}) bool {
		if value.(string) == roomId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}
