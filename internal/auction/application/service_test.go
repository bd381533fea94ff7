package application

import (
	"context"
	"testing"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/cristianortiz/thriftbid/internal/auction/infra/repository/memory"
	profile "github.com/cristianortiz/thriftbid/internal/profile/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckWinner(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ctx := context.Background()

	t.Run("nil while the auction is open", func(t *testing.T) {
		g := memory.NewGateway()
		p := seedAuction(g, 2500, &end)
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), 2600, 2500, start)
		require.NoError(t, err)

		uc := NewCheckWinnerUseCase(g, g).WithNow(fixedNow(start.Add(30 * time.Minute)))
		winner, err := uc.Execute(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, winner)
	})

	t.Run("nil when ended with zero bids", func(t *testing.T) {
		g := memory.NewGateway()
		p := seedAuction(g, 2500, &end)

		uc := NewCheckWinnerUseCase(g, g).WithNow(fixedNow(end.Add(time.Minute)))
		winner, err := uc.Execute(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, winner, "listing closes unsold at its starting price")
	})

	t.Run("not an auction", func(t *testing.T) {
		g := memory.NewGateway()
		p := domain.NewProduct(uuid.New(), uuid.New(), "Plain tee", "", 500, false, nil)
		g.AddProduct(p)

		uc := NewCheckWinnerUseCase(g, g).WithNow(fixedNow(start))
		_, err := uc.Execute(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotAuction)
	})

	t.Run("idempotent after the end", func(t *testing.T) {
		g := memory.NewGateway()
		p := seedAuction(g, 2500, &end)
		winnerID := uuid.New()
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), 2600, 2500, start)
		require.NoError(t, err)
		_, err = g.AppendBid(ctx, p.ID, winnerID, 2700, 2600, start.Add(time.Minute))
		require.NoError(t, err)

		uc := NewCheckWinnerUseCase(g, g).WithNow(fixedNow(end.Add(time.Second)))

		first, err := uc.Execute(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, first)

		for i := 0; i < 3; i++ {
			again, err := uc.Execute(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
		assert.Equal(t, winnerID, first.BidderID)
		assert.Equal(t, 2700.0, first.Amount)
	})
}

func TestGetProductState(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Hour + 30*time.Minute)
	ctx := context.Background()

	g := memory.NewGateway()
	p := seedAuction(g, 2500, &end)
	bidder := uuid.New()
	_, err := g.AppendBid(ctx, p.ID, uuid.New(), 2600, 2500, start.Add(time.Minute))
	require.NoError(t, err)
	_, err = g.AppendBid(ctx, p.ID, bidder, 2700, 2600, start.Add(2*time.Minute))
	require.NoError(t, err)

	uc := NewGetProductStateUseCase(g, g).WithNow(fixedNow(start))

	state, err := uc.Execute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2700.0, state.CurrentPrice)
	assert.Equal(t, "KSh 2,700", state.PriceDisplay)
	assert.Equal(t, 2, state.BidCount)
	assert.Equal(t, bidder, state.LastBidderID)
	assert.Equal(t, 2700.0, state.LastBidAmount)
	assert.False(t, state.Ended)
	assert.Equal(t, "2h 30m 0s", state.TimeLeft)

	uc.WithNow(fixedNow(end.Add(time.Second)))
	ended, err := uc.Execute(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.Equal(t, "Auction ended", ended.TimeLeft)
}

// BidCount is the full ledger total, not the size of the ranked window the
// bid list renders.
func TestGetProductStateBidCountBeyondWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ctx := context.Background()

	g := memory.NewGateway()
	p := seedAuction(g, 100, &end)

	price := 100.0
	for i := 0; i < 12; i++ {
		amount := price + 10
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), amount, price, start.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		price = amount
	}

	uc := NewGetProductStateUseCase(g, g).WithNow(fixedNow(start.Add(30 * time.Minute)))
	state, err := uc.Execute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, state.BidCount)
	assert.Equal(t, 220.0, state.LastBidAmount)
}

func TestGetProductStateNotFound(t *testing.T) {
	g := memory.NewGateway()
	uc := NewGetProductStateUseCase(g, g)

	_, err := uc.Execute(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestTopBidsEnrichesBidderNames(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ctx := context.Background()

	g := memory.NewGateway()
	profiles := memory.NewProfileDirectory()
	p := seedAuction(g, 100, &end)

	known := uuid.New()
	profiles.AddProfile(&profile.Profile{ID: known, FullName: "Amina W."})
	unknown := uuid.New()

	_, err := g.AppendBid(ctx, p.ID, known, 150, 100, start)
	require.NoError(t, err)
	_, err = g.AppendBid(ctx, p.ID, unknown, 200, 150, start.Add(time.Minute))
	require.NoError(t, err)

	uc := NewTopBidsUseCase(g, profiles)
	ranked, err := uc.Execute(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, 200.0, ranked[0].Amount)
	assert.Empty(t, ranked[0].BidderName, "missing profile never blocks the list")
	assert.Equal(t, "Amina W.", ranked[1].BidderName)
	assert.Equal(t, "KSh 150", ranked[1].AmountDisplay)
}

func TestAuctionServiceFacade(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	g := memory.NewGateway()
	profiles := memory.NewProfileDirectory()
	p := seedAuction(g, 2500, &end)

	svc := NewAuctionService(
		NewPlaceBidUseCase(g, g, &captureNotifier{}).WithNow(fixedNow(start)),
		NewGetProductStateUseCase(g, g).WithNow(fixedNow(start)),
		NewTopBidsUseCase(g, profiles),
		NewCheckWinnerUseCase(g, g).WithNow(fixedNow(start)),
	)

	bid, err := svc.PlaceBid(context.Background(), PlaceBidDTO{ProductID: p.ID, BidderID: uuid.New(), Amount: 2600})
	require.NoError(t, err)

	state, err := svc.GetProductState(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.Amount, state.CurrentPrice)

	ranked, err := svc.TopBids(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	winner, err := svc.CheckWinner(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, winner, "auction still open")
}
