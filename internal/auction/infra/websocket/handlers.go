package websocket

import (
	"context"
	"encoding/json"

	"github.com/cristianortiz/thriftbid/internal/auction/application"
	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/cristianortiz/thriftbid/internal/shared/logger"
	"github.com/cristianortiz/thriftbid/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	gofiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler processes auction-specific inbound WS messages.
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *websocket.Hub
}

func NewAuctionWSHandler(auctionService application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// RegisterRoutes mounts the subscribe endpoint. A client connects to the
// product it is viewing, receives the auction snapshot and then the
// bid-accepted stream until it disconnects.
func (h *AuctionWSHandler) RegisterRoutes(ctx context.Context, app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if gofiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/products/:id", gofiberws.New(func(conn *gofiberws.Conn) {
		productID, err := uuid.Parse(conn.Params("id"))
		if err != nil {
			_ = conn.WriteMessage(gofiberws.TextMessage, mustMarshalError("not_found", "invalid product id", nil))
			_ = conn.Close()
			return
		}

		client := &websocket.Client{
			Hub:       h.hub,
			Conn:      conn,
			Send:      make(chan []byte, 16),
			ProductID: productID.String(),
			ID:        uuid.NewString(),
		}
		h.hub.RegisterClient(client)

		h.sendInitialState(ctx, client, productID)

		go client.WritePump(ctx)
		client.ReadPump(ctx) // blocks until the connection drops
	}))
}

// ListenForMessages consumes the hub's inbound channel; run it once per
// process.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "bad_message", "invalid message format", nil)
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBid(ctx, client, data)
	default:
		h.sendErrorToClient(client, "bad_message", "unknown message type", nil)
	}
}

func (h *AuctionWSHandler) handleClientBid(ctx context.Context, client *websocket.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "bad_message", "invalid bid message format", nil)
		return
	}

	if bidMsg.Payload.ProductID.String() != client.ProductID {
		h.sendErrorToClient(client, "bad_message", "product ID mismatch", nil)
		return
	}

	cmd := application.PlaceBidDTO{
		ProductID: bidMsg.Payload.ProductID,
		BidderID:  bidMsg.Payload.BidderID,
		Amount:    bidMsg.Payload.Amount,
	}
	// the accepted-bid broadcast reaches this client through the engine's
	// notifier, so only rejections are answered here
	if _, err := h.auctionService.PlaceBid(ctx, cmd); err != nil {
		var price *float64
		if p, ok := domain.CurrentPriceOf(err); ok {
			price = &p
		}
		h.sendErrorToClient(client, RejectionCode(err), err.Error(), price)
	}
}

// sendInitialState pushes the auction snapshot to a freshly connected client.
func (h *AuctionWSHandler) sendInitialState(ctx context.Context, client *websocket.Client, productID uuid.UUID) {
	state, err := h.auctionService.GetProductState(ctx, productID)
	if err != nil {
		h.sendErrorToClient(client, RejectionCode(err), "failed to load auction state", nil)
		return
	}
	recent, err := h.auctionService.TopBids(ctx, productID, 0)
	if err != nil {
		log.Warn("initial state: top bids lookup failed",
			zap.String("productID", productID.String()),
			zap.Error(err),
		)
	}

	msg := ServerAuctionStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerAuctionState},
	}
	msg.Payload.State = state
	msg.Payload.RecentBids = recent

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal auction state", zap.Error(err))
		return
	}
	if err := h.hub.SendToClient(client, data); err != nil {
		log.Warn("could not queue initial state for client",
			zap.String("clientID", client.ID),
			zap.Error(err),
		)
	}
}

func (h *AuctionWSHandler) sendErrorToClient(client *websocket.Client, code, message string, currentPrice *float64) {
	if err := h.hub.SendToClient(client, mustMarshalError(code, message, currentPrice)); err != nil {
		log.Warn("could not queue error for client",
			zap.String("clientID", client.ID),
			zap.Error(err),
		)
	}
}

func mustMarshalError(code, message string, currentPrice *float64) []byte {
	errMsg := ServerErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerError},
	}
	errMsg.Payload.Code = code
	errMsg.Payload.Error = message
	errMsg.Payload.CurrentPrice = currentPrice

	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return []byte(`{"type":"server_error"}`)
	}
	return data
}
