package events

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"nftmarket/pkg/market"
	"nftmarket/pkg/registry"
)

var (
	tokenAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	alice     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob       = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	carol     = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
)

func itemEvent(kind market.EventKind, id uint64, seller, buyer common.Address) market.Event {
	state := market.StateCreated
	switch kind {
	case market.EventItemSold:
		state = market.StateReleased
	case market.EventItemDeleted:
		state = market.StateDeleted
	}
	return market.Event{
		ID:   uuid.New(),
		Kind: kind,
		Item: market.MarketItem{
			ID:            id,
			AssetContract: tokenAddr,
			AssetID:       id,
			Seller:        seller,
			Buyer:         buyer,
			Price:         big.NewInt(1_000_000_000_000_000_000),
			State:         state,
		},
		At: time.Now().UTC(),
	}
}

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) market.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev market.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHub_StreamsEvents(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	sent := itemEvent(market.EventItemCreated, 1, alice, common.Address{})
	require.NoError(t, hub.Publish(context.Background(), sent))

	got := readEvent(t, conn)
	require.Equal(t, sent.ID, got.ID)
	require.Equal(t, market.EventItemCreated, got.Kind)
	require.Equal(t, uint64(1), got.Item.ID)
	require.Equal(t, alice, got.Item.Seller)
	require.Equal(t, 0, sent.Item.Price.Cmp(got.Item.Price))
}

func TestHub_AddressFilter(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)
	conn := dial(t, srv, "?address="+bob.Hex())
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, itemEvent(market.EventItemCreated, 1, alice, common.Address{})))
	require.NoError(t, hub.Publish(ctx, itemEvent(market.EventItemDeleted, 2, carol, common.Address{})))
	require.NoError(t, hub.Publish(ctx, itemEvent(market.EventItemSold, 1, alice, bob)))

	got := readEvent(t, conn)
	require.Equal(t, market.EventItemSold, got.Kind)
	require.Equal(t, bob, got.Item.Buyer)
}

func TestHub_RejectsMalformedFilter(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?address=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 0, hub.Count())
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	// publishing with nobody listening is not an error
	require.NoError(t, hub.Publish(context.Background(), itemEvent(market.EventItemCreated, 1, alice, common.Address{})))
}

func TestHub_FullQueueDoesNotBlock(t *testing.T) {
	hub := NewHub()
	client := hub.AddClient(nil, common.Address{})

	ctx := context.Background()
	for i := 0; i < sendQueueSize+5; i++ {
		require.NoError(t, hub.Publish(ctx, itemEvent(market.EventItemCreated, uint64(i+1), alice, common.Address{})))
	}
	require.Len(t, client.Send, sendQueueSize)

	hub.RemoveClient(client.ID)
	require.Equal(t, 0, hub.Count())
}

func TestHandler_Status(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)
	dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.URL + "/events/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEngineDeliversToHub(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	client := hub.AddClient(nil, common.Address{})
	defer hub.RemoveClient(client.ID)

	marketAddr := common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	token := registry.NewToken(tokenAddr, "BadgeToken", "BADGE")
	engine := market.NewEngine(market.NewMemoryStore(), market.Registries{tokenAddr: token}, marketAddr, market.WithPublisher(hub))
	require.NoError(t, engine.Initialize(ctx, carol, big.NewInt(0), 1))

	_, err := engine.BuyMarketItem(ctx, market.Call{Sender: bob}, tokenAddr, 1)
	require.ErrorIs(t, err, market.ErrNotListed)
	require.Len(t, client.Send, 0)

	id, err := token.MintTo(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, token.Approve(ctx, alice, marketAddr, id))
	_, err = engine.CreateMarketItem(ctx, market.Call{Sender: alice}, tokenAddr, id, big.NewInt(5))
	require.NoError(t, err)

	require.Len(t, client.Send, 1)
	ev := <-client.Send
	require.Equal(t, market.EventItemCreated, ev.Kind)
	require.Equal(t, alice, ev.Item.Seller)
}
