package broker

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/tambolahq/tambola-services/internal/comm"
)

// Broker consumes room service notifications and routes them to sockets:
// messages with a SocketId go to that one client, broadcast notifications go
// to every socket registered for the room.
type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	GetRoomSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool), fncGetRoomSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetRoomSockets: fncGetRoomSockets,
	}
}

// Subscribe consumes notifications from the room service.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Publish forwards a client command to the room service.
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, &message); err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if message.SocketId != "" {
		b.sendMessage(message)
		return
	}

	switch message.Type {
	case "bingo-call":
		var call comm.CallMessage
		if err := json.Unmarshal(message.Data, &call); err != nil {
			log.Errorf("invalid bingo-call payload: %s", err)
			return
		}
		b.broadcast(call.RoomID, message)
	case "room-update", "game-over":
		var note comm.RoomNotification
		if err := json.Unmarshal(message.Data, &note); err != nil {
			log.Errorf("invalid %s payload: %s", message.Type, err)
			return
		}
		b.broadcast(note.RoomID, message)
	default:
		log.Warnf("unknown notification %s", message.Type)
	}
}

// broadcast fans a notification out to all sockets registered for the room.
func (b *Broker) broadcast(roomId string, m *comm.WSMessage) {
	sockets, ok := b.GetRoomSockets(roomId)
	if !ok {
		return
	}
	for _, socketId := range sockets {
		if conn, ok := b.GetConnection(socketId); ok {
			if err := conn.WriteJSON(m); err != nil {
				log.Errorf("write to socket %s: %v", socketId, err)
			}
		}
	}
}

// sendMessage delivers a reply to a single web client.
func (b *Broker) sendMessage(m *comm.WSMessage) {
	socketId := m.SocketId
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Println(err)
		}
	}
}
