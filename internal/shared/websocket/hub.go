package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/thriftbid/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// ErrBroadcastFull is reported when the broadcast queue cannot take another
// message; the event is dropped, viewers recover by re-querying.
var ErrBroadcastFull = errors.New("websocket broadcast channel full")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Hub keeps the client registry and fans broadcasts out to every viewer of a
// product. Clients are grouped by the product ID they are watching.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// direct carries frames addressed to a single client. The hub loop is
	// the only goroutine that sends on a Client.Send channel or closes it,
	// so a client dropping out while a frame is in flight cannot panic the
	// sender; the frame is silently discarded instead.
	direct chan *ClientMessage
	// InboundMessages is consumed by module-specific handlers (the auction
	// WS handler listens here).
	InboundMessages chan *ClientMessage
}

// Client represents one websocket connection watching one product.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	// Buffered channel of outbound messages.
	Send      chan []byte
	ProductID string
	ID        string
}

type Message struct {
	ProductID string
	Data      []byte
}

// ClientMessage wraps an inbound frame with the client that sent it.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message, 64),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		direct:          make(chan *ClientMessage, 64),
		clients:         make(map[string]map[*Client]bool),
		InboundMessages: make(chan *ClientMessage, 64),
	}
}

// Run starts the hub loop; it owns the clients map, so registration,
// unregistration and broadcast all serialize through here.
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("WebSocket hub shutting down")
			return

		case client := <-h.register:
			if _, ok := h.clients[client.ProductID]; !ok {
				h.clients[client.ProductID] = make(map[*Client]bool)
			}
			h.clients[client.ProductID][client] = true
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("productID", client.ProductID),
				zap.Int("viewers", len(h.clients[client.ProductID])),
			)

		case client := <-h.unregister:
			if clients, ok := h.clients[client.ProductID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					log.Info("Client unregistered",
						zap.String("clientID", client.ID),
						zap.String("productID", client.ProductID),
					)
					if len(clients) == 0 {
						delete(h.clients, client.ProductID)
						log.Debug("Product group removed as empty", zap.String("productID", client.ProductID))
					}
				}
			}

		case msg := <-h.direct:
			if clients, ok := h.clients[msg.Client.ProductID]; ok {
				if _, registered := clients[msg.Client]; registered {
					select {
					case msg.Client.Send <- msg.Data:
					default:
						// slow or dead client, drop it
						close(msg.Client.Send)
						delete(clients, msg.Client)
						log.Warn("Client send buffer full, unregistering",
							zap.String("clientID", msg.Client.ID),
							zap.String("productID", msg.Client.ProductID),
						)
					}
				}
			}

		case message := <-h.broadcast:
			if clients, ok := h.clients[message.ProductID]; ok {
				log.Debug("Broadcasting to product viewers",
					zap.String("productID", message.ProductID),
					zap.Int("clients", len(clients)),
				)
				for client := range clients {
					select {
					case client.Send <- message.Data:
					default:
						// slow or dead client, drop it
						close(client.Send)
						delete(clients, client)
						log.Warn("Client send buffer full, unregistering",
							zap.String("clientID", client.ID),
							zap.String("productID", client.ProductID),
						)
					}
				}
			}
		}
	}
}

// RegisterClient hands a client to the hub loop; it returns once the loop has
// taken it, so a following SendToClient is ordered after the registration.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient hands a client to the hub loop for removal. Safe to call
// more than once; the loop ignores clients it no longer tracks.
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// SendToClient queues data for one client. The actual send happens inside the
// hub loop, which owns the Send channel lifecycle, so delivery never races a
// disconnect; frames for a client that already left are discarded.
func (h *Hub) SendToClient(client *Client, data []byte) error {
	select {
	case h.direct <- &ClientMessage{Client: client, Data: data}:
		return nil
	default:
		log.Error("Direct channel full, message dropped",
			zap.String("clientID", client.ID),
			zap.String("productID", client.ProductID),
		)
		return ErrBroadcastFull
	}
}

// BroadcastToProduct sends data to every client watching the product.
func (h *Hub) BroadcastToProduct(productID string, data []byte) error {
	select {
	case h.broadcast <- &Message{ProductID: productID, Data: data}:
		return nil
	default:
		log.Error("Broadcast channel full, message dropped", zap.String("productID", productID))
		return ErrBroadcastFull
	}
}

// ReadPump reads frames from the client and hands them to the hub's inbound
// channel. Run it in its own goroutine per connection.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Debug("ReadPump stopped",
			zap.String("clientID", c.ID),
			zap.String("productID", c.ProductID),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("productID", c.ProductID),
					zap.Error(err),
				)
			}
			break
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Inbound channel full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("productID", c.ProductID),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection and keeps
// the connection alive with pings. At most one writer per connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Debug("WritePump stopped",
			zap.String("clientID", c.ID),
			zap.String("productID", c.ProductID),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("productID", c.ProductID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
