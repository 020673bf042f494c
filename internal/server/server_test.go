package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haggle-core-poc/server/internal/negotiation"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	"github.com/haggle-core-poc/server/internal/negotiation/store"
	"github.com/haggle-core-poc/server/internal/signal"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ch, err := signal.NewFileChannel(t.TempDir())
	require.NoError(t, err)
	return New(negotiation.NewSession(st, ch, negotiation.Options{}))
}

func TestDispatchEnvUpdate(t *testing.T) {
	s := newTestServer(t)

	ack := s.Dispatch(context.Background(), []byte(`{"type":"env_update","noise_level":22,"crowd_density":4}`))
	require.NotNil(t, ack)

	var got model.EnvAck
	require.NoError(t, json.Unmarshal(ack, &got))
	assert.Equal(t, model.TypeEnvAck, got.Type)
	assert.Equal(t, 10, got.Env.NoiseLevel)
	assert.Equal(t, 4, got.Env.CrowdDensity)

	// time_pressure always rides along in the acknowledgement.
	assert.True(t, strings.Contains(string(ack), "time_pressure"))
}

func TestDispatchEnvUpdateIgnoresUnknownFields(t *testing.T) {
	s := newTestServer(t)

	ack := s.Dispatch(context.Background(), []byte(`{"type":"env_update","weather":"rainy","noise_level":3}`))
	require.NotNil(t, ack)

	var got model.EnvAck
	require.NoError(t, json.Unmarshal(ack, &got))
	assert.Equal(t, 3, got.Env.NoiseLevel)
}

func TestDispatchEnvUpdateCannotTouchTimePressure(t *testing.T) {
	s := newTestServer(t)

	ack := s.Dispatch(context.Background(), []byte(`{"type":"env_update","time_pressure":9}`))
	require.NotNil(t, ack)

	var got model.EnvAck
	require.NoError(t, json.Unmarshal(ack, &got))
	assert.Equal(t, 0, got.Env.TimePressure)
}

func TestDispatchItemSelectedBothCasings(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	for _, payload := range []string{
		`{"type":"item_selected","item_id":"a1","item_name":"hand fan","max_price":100,"min_price":20}`,
		`{"type":"item_selected","itemId":"a1","itemName":"hand fan","maxPrice":100,"minPrice":20}`,
	} {
		ack := s.Dispatch(ctx, []byte(payload))
		require.NotNil(t, ack, payload)

		var got model.ItemAck
		require.NoError(t, json.Unmarshal(ack, &got))
		assert.Equal(t, model.TypeItemAck, got.Type)
		assert.Equal(t, "a1", got.Item.ItemID)
		assert.Equal(t, "hand fan", got.Item.ItemName)
		assert.Equal(t, 100.0, got.Item.MaxPrice)
		assert.Equal(t, 20.0, got.Item.MinPrice)
	}
}

func TestDispatchUtterance(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	ack := s.Dispatch(ctx, []byte(`{"type":"user_utterance","utterance":"any discount?"}`))
	require.NotNil(t, ack)

	var got model.UtteranceAck
	require.NoError(t, json.Unmarshal(ack, &got))
	assert.Equal(t, model.TypeUtteranceAck, got.Type)
	assert.Equal(t, "any discount?", got.Echo)
	assert.Equal(t, 5.0, got.DialogueConcession)
	assert.Empty(t, got.AgentReply)
}

func TestDispatchEmptyUtteranceProducesNoAck(t *testing.T) {
	s := newTestServer(t)

	assert.Nil(t, s.Dispatch(context.Background(), []byte(`{"type":"user_utterance","utterance":"   "}`)))
}

func TestDispatchDropsMalformedAndUnknown(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	assert.Nil(t, s.Dispatch(ctx, []byte(`this is not json`)))
	assert.Nil(t, s.Dispatch(ctx, []byte(`{"type":"dance_request"}`)))

	// The session is still alive afterwards.
	ack := s.Dispatch(ctx, []byte(`{"type":"user_utterance","utterance":"hello"}`))
	require.NotNil(t, ack)
}

func TestWebsocketEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	send := func(payload string) map[string]any {
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(payload)))
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	itemAck := send(`{"type":"item_selected","itemId":"a1","itemName":"hand fan","maxPrice":100,"minPrice":20}`)
	assert.Equal(t, "item_received", itemAck["type"])

	envAck := send(`{"type":"env_update","noise_level":6}`)
	assert.Equal(t, "env_received", envAck["type"])

	uttAck := send(`{"type":"user_utterance","utterance":"how much?"}`)
	assert.Equal(t, "utterance_received", uttAck["type"])
	assert.Equal(t, "how much?", uttAck["echo"])
	assert.Equal(t, 5.0, uttAck["dialogue_concession"])
}
