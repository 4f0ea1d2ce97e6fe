package ws

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

var HubInstance = NewHub()

func init() {
	go HubInstance.Run()
}

// Client is one connected browser session.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub keeps the connected clients and fans broadcast messages out to them.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
			}
		case message := <-h.Broadcast:
			for client := range h.Clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.Clients, client)
				}
			}
		}
	}
}

// BroadcastEvent wraps data in the {type, data} envelope every client
// expects and queues it for broadcast. Marshal failures are dropped; events
// are advisory.
func (h *Hub) BroadcastEvent(eventType string, data interface{}) {
	msg, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return
	}
	h.Broadcast <- msg
}
