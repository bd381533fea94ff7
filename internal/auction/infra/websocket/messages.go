package websocket

import (
	"errors"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/application"
	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
)

// MessageType identifies a WS frame.
type MessageType string

const (
	MessageTypeClientBid          MessageType = "client_bid"           // client places a bid
	MessageTypeServerBidAccepted  MessageType = "server_bid_accepted"  // broadcast after a ledger write
	MessageTypeServerAuctionState MessageType = "server_auction_state" // snapshot sent on connect
	MessageTypeServerError        MessageType = "server_error"         // rejection, sent to the offending client only
)

// BaseMessage is embedded by every WS message, the Type field routes it.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		ProductID uuid.UUID `json:"product_id"`
		BidderID  uuid.UUID `json:"bidder_id"`
		Amount    float64   `json:"amount"`
	} `json:"payload"`
}

// ServerBidAcceptedMessage carries the new authoritative price with the bid,
// so viewers can raise the displayed price without a re-fetch.
type ServerBidAcceptedMessage struct {
	BaseMessage
	Payload struct {
		ProductID    uuid.UUID `json:"product_id"`
		BidID        uuid.UUID `json:"bid_id"`
		BidderID     uuid.UUID `json:"bidder_id"`
		Amount       float64   `json:"amount"`
		CurrentPrice float64   `json:"current_price"`
		PriceDisplay string    `json:"price_display"`
		CreatedAt    time.Time `json:"created_at"`
	} `json:"payload"`
}

// ServerAuctionStateMessage is the initial snapshot a client receives right
// after subscribing to a product.
type ServerAuctionStateMessage struct {
	BaseMessage
	Payload struct {
		State      *application.ProductStateDTO `json:"state"`
		RecentBids []*application.RankedBidDTO  `json:"recent_bids,omitempty"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Code         string   `json:"code"`
		Error        string   `json:"error"`
		CurrentPrice *float64 `json:"current_price,omitempty"`
	} `json:"payload"`
}

// RejectionCode maps a bid rejection to the stable code clients switch on.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotAuction):
		return "not_auction"
	case errors.Is(err, domain.ErrAuctionClosed):
		return "auction_closed"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrStaleOffer):
		return "stale_offer"
	default:
		return "internal"
	}
}
