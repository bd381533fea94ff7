package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/cristianortiz/thriftbid/internal/shared/currency"
	"github.com/cristianortiz/thriftbid/internal/shared/websocket"
	"github.com/google/uuid"
)

// HubNotifier adapts the shared hub to domain.BidEventNotifier: accepted bids
// fan out to every client watching the product.
type HubNotifier struct {
	hub *websocket.Hub
}

func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) BidAccepted(productID uuid.UUID, ev domain.BidEvent) error {
	msg := ServerBidAcceptedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerBidAccepted},
	}
	msg.Payload.ProductID = productID
	msg.Payload.BidID = ev.Bid.ID
	msg.Payload.BidderID = ev.Bid.BidderID
	msg.Payload.Amount = ev.Bid.Amount
	msg.Payload.CurrentPrice = ev.CurrentPrice
	msg.Payload.PriceDisplay = currency.FormatKSh(ev.CurrentPrice)
	msg.Payload.CreatedAt = ev.Bid.CreatedAt

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshal bid event: %v", domain.ErrChannelUnavailable, err)
	}
	if err := n.hub.BroadcastToProduct(productID.String(), data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
	}
	return nil
}
