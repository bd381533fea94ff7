package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/application"
	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/cristianortiz/thriftbid/internal/shared/currency"
	"github.com/cristianortiz/thriftbid/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionHandler exposes the auction engine over REST. The WS stream is an
// optimization; everything here is the authoritative read path viewers fall
// back to.
type AuctionHandler struct {
	service  application.AuctionService
	products domain.ProductRepository
}

func NewAuctionHandler(service application.AuctionService, products domain.ProductRepository) *AuctionHandler {
	return &AuctionHandler{
		service:  service,
		products: products,
	}
}

func (h *AuctionHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/products/:id/auction", h.getAuctionState)
	api.Get("/products/:id/bids", h.listBids)
	api.Post("/products/:id/bids", h.placeBid)
	api.Get("/products/:id/winner", h.getWinner)
	api.Get("/auctions/active", h.listActive)
	api.Get("/auctions/ending-soon", h.listEndingSoon)
}

type placeBidRequest struct {
	BidderID uuid.UUID `json:"bidder_id"`
	Amount   float64   `json:"amount"`
}

type bidResponse struct {
	BidID        uuid.UUID `json:"bid_id"`
	ProductID    uuid.UUID `json:"product_id"`
	BidderID     uuid.UUID `json:"bidder_id"`
	Amount       float64   `json:"amount"`
	PriceDisplay string    `json:"price_display"`
	CreatedAt    time.Time `json:"created_at"`
}

type errorResponse struct {
	Code         string   `json:"code"`
	Error        string   `json:"error"`
	CurrentPrice *float64 `json:"current_price,omitempty"`
}

// auctionListing is the row shape of the listing endpoints.
type auctionListing struct {
	ProductID      uuid.UUID  `json:"product_id"`
	Title          string     `json:"title"`
	CurrentPrice   float64    `json:"current_price"`
	PriceDisplay   string     `json:"price_display"`
	AuctionEndTime *time.Time `json:"auction_end_time,omitempty"`
	TimeLeft       string     `json:"time_left,omitempty"`
}

func (h *AuctionHandler) getAuctionState(c *fiber.Ctx) error {
	productID, ok := parseProductID(c)
	if !ok {
		return nil
	}

	state, err := h.service.GetProductState(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHandler) listBids(c *fiber.Ctx) error {
	productID, ok := parseProductID(c)
	if !ok {
		return nil
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	bids, err := h.service.TopBids(c.Context(), productID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bids)
}

func (h *AuctionHandler) placeBid(c *fiber.Ctx) error {
	productID, ok := parseProductID(c)
	if !ok {
		return nil
	}

	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Code: "bad_request", Error: "invalid JSON body"})
	}
	if req.BidderID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Code: "bad_request", Error: "bidder_id is required"})
	}

	bid, err := h.service.PlaceBid(c.Context(), application.PlaceBidDTO{
		ProductID: productID,
		BidderID:  req.BidderID,
		Amount:    req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(bidResponse{
		BidID:        bid.ID,
		ProductID:    bid.ProductID,
		BidderID:     bid.BidderID,
		Amount:       bid.Amount,
		PriceDisplay: currency.FormatKSh(bid.Amount),
		CreatedAt:    bid.CreatedAt,
	})
}

func (h *AuctionHandler) getWinner(c *fiber.Ctx) error {
	productID, ok := parseProductID(c)
	if !ok {
		return nil
	}

	winner, err := h.service.CheckWinner(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	if winner == nil {
		// still open, or ended without bids
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(winner)
}

func (h *AuctionHandler) listActive(c *fiber.Ctx) error {
	products, err := h.products.GetActiveAuctions(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toListings(products))
}

func (h *AuctionHandler) listEndingSoon(c *fiber.Ctx) error {
	within := time.Hour
	if raw := c.Query("within"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Code: "bad_request", Error: "invalid within duration"})
		}
		within = d
	}

	products, err := h.products.GetAuctionsEndingSoon(c.Context(), within)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toListings(products))
}

func toListings(products []*domain.Product) []auctionListing {
	now := time.Now()
	out := make([]auctionListing, 0, len(products))
	for _, p := range products {
		row := auctionListing{
			ProductID:      p.ID,
			Title:          p.Title,
			CurrentPrice:   p.CurrentPrice,
			PriceDisplay:   currency.FormatKSh(p.CurrentPrice),
			AuctionEndTime: p.AuctionEndTime,
		}
		if p.AuctionEndTime != nil {
			row.TimeLeft = domain.FormatRemaining(domain.Remaining(*p.AuctionEndTime, now))
		}
		out = append(out, row)
	}
	return out
}

// parseProductID answers the request itself on a malformed id; callers bail
// out when ok is false.
func parseProductID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(errorResponse{Code: "bad_request", Error: "invalid product id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps the engine's typed rejections to status codes, attaching
// the authoritative price where the taxonomy carries one.
func writeError(c *fiber.Ctx, err error) error {
	resp := errorResponse{Code: rejectionCode(err), Error: err.Error()}
	if price, ok := domain.CurrentPriceOf(err); ok {
		resp.CurrentPrice = &price
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotAuction), errors.Is(err, domain.ErrInvalidAmount):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStaleOffer):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrAuctionClosed):
		status = fiber.StatusGone
	default:
		log.Error("unhandled error in auction handler", zap.Error(err))
		resp.Error = "internal error"
	}
	return c.Status(status).JSON(resp)
}

func rejectionCode(err error) string {
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
