package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJobFailedMessage(t *testing.T) {
	msg := JobFailedMessage(7, "byteplus", "All BytePlus image generations failed", []string{"Variation_1: API error (500): *boom*"})
	assert.Equal(t, "❌ Generation job #7 (byteplus) failed\nAll BytePlus image generations failed\n• Variation\\_1: API error (500): \\*boom\\*", msg)
}

func TestNewWithoutTokenIsNop(t *testing.T) {
	n := New("", 42, zap.NewNop())
	assert.IsType(t, NopNotifier{}, n)
	assert.NoError(t, n.Notify(context.Background(), "hi"))
}

func TestBotNotifierSends(t *testing.T) {
	var sent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"alerts","username":"alerts_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			require.NoError(t, r.ParseForm())
			sent = r.PostForm.Get("text")
			assert.Equal(t, "42", r.PostForm.Get("chat_id"))
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	bot, err := tgbotapi.NewBotAPIWithClient("token", server.URL+"/bot%s/%s", server.Client())
	require.NoError(t, err)

	require.NoError(t, NewBotNotifier(bot, 42).Notify(context.Background(), "job failed"))
	assert.Equal(t, "job failed", sent)
}
