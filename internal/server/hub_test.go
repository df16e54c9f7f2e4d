package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finboard/internal/events"
)

func dialFeed(t *testing.T, f *fixture, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ts := httptest.NewServer(f.router)
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?access_token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestFeedStreamsOwnEventsOnly(t *testing.T) {
	f := newFixture(t)
	conn, _, err := dialFeed(t, f, tokenFor(t, "ana"))
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.srv.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.bus.Publish(events.Event{User: "bob", Collection: events.Banks, Action: events.Create, ID: "bob-bank"})
	bank := f.createBank(t, "ana", "BPI", "0")

	msg := readMessage(t, conn)
	assert.Equal(t, "change", msg.Type)
	assert.Equal(t, "ana", msg.Payload.User)
	assert.Equal(t, events.Banks, msg.Payload.Collection)
	assert.Equal(t, events.Create, msg.Payload.Action)
	assert.Equal(t, bank.ID, msg.Payload.ID)

	rec := f.do(t, "ana", http.MethodPost, "/api/transactions", expenseBody(bank.ID, "5", "2025-03-04"))
	require.Equal(t, http.StatusCreated, rec.Code)
	// The balance write lands before the transaction record.
	assert.Equal(t, events.Banks, readMessage(t, conn).Payload.Collection)
	assert.Equal(t, events.Transactions, readMessage(t, conn).Payload.Collection)
}

func TestFeedRequiresToken(t *testing.T) {
	f := newFixture(t)
	_, resp, err := dialFeed(t, f, "garbage")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	f := newFixture(t)
	conn, _, err := dialFeed(t, f, tokenFor(t, "ana"))
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.srv.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.srv.hub.Close()
	assert.Equal(t, 0, f.srv.hub.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// Publishing after close must not block or panic.
	f.bus.Publish(events.Event{User: "ana", Collection: events.Banks, Action: events.Update, ID: "x"})
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ws?access_token=q", nil)
	tok, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "q", tok)

	req.Header.Set("Authorization", "bearer h")
	tok, err = bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "h", tok, "the header wins over the query")

	_, err = bearerToken(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, errNoToken)
}
