package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/notification"
)

func newCapture(t *testing.T, status int) (*httptest.Server, *[]WebhookMessage, *[]string) {
	t.Helper()
	var msgs []WebhookMessage
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m WebhookMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		msgs = append(msgs, m)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &msgs, &paths
}

func TestClient_SendBatch(t *testing.T) {
	srv, msgs, paths := newCapture(t, http.StatusNoContent)
	c := NewClient(srv.URL+"/trade", srv.URL+"/error")

	err := c.SendBatch(context.Background(), notification.BatchSummary{
		BatchID: "B1", Action: domain.ActionTrade, Market: domain.Futures, Symbol: "BTCUSDT", Side: domain.Buy,
		Placed: 1, Skipped: 2,
		Failures: []notification.Failure{{UserID: "u1", Symbol: "BTCUSDT", Reason: "Invalid API-key"}},
	})
	require.NoError(t, err)

	require.Len(t, *msgs, 1)
	assert.Equal(t, "/trade", (*paths)[0])
	embed := (*msgs)[0].Embeds[0]
	assert.Contains(t, embed.Title, "TRADE")
	assert.Equal(t, notification.ColorWarning, embed.Color)
	require.Len(t, embed.Fields, 1)
	assert.Contains(t, embed.Fields[0].Value, "Invalid API-key")
}

func TestClient_SendErrorUsesErrorWebhook(t *testing.T) {
	srv, _, paths := newCapture(t, http.StatusOK)
	c := NewClient(srv.URL+"/trade", srv.URL+"/error")

	require.NoError(t, c.SendError(context.Background(), errors.New("boom")))
	assert.Equal(t, []string{"/error"}, *paths)
}

func TestClient_SendClosure(t *testing.T) {
	srv, msgs, _ := newCapture(t, http.StatusNoContent)
	c := NewClient(srv.URL, "")

	require.NoError(t, c.SendClosure(context.Background(), domain.ClosedPosition{
		UserID: "u1", Symbol: "ETHUSDT", Quantity: 1, RealizedPnL: -3, CloseTime: time.Now(),
	}))
	assert.Equal(t, notification.ColorError, (*msgs)[0].Embeds[0].Color)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv, _, _ := newCapture(t, http.StatusBadRequest)
	c := NewClient(srv.URL, "")

	err := c.SendInfo(context.Background(), "hello")
	assert.Error(t, err)
}

func TestClient_EmptyWebhookIsNoop(t *testing.T) {
	c := NewClient("", "")
	assert.NoError(t, c.SendInfo(context.Background(), "hello"))
}

func TestEmbed_Truncates(t *testing.T) {
	e := NewEmbed().AddField("긴 값", strings.Repeat("가", 2000), false)
	assert.Equal(t, maxFieldValueLen, len([]rune(e.Fields[0].Value)))

	for i := 0; i < 30; i++ {
		e.AddField("f", "v", true)
	}
	assert.Len(t, e.Fields, maxFields)
}
