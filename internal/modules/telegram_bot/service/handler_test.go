package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitunix_bot/internal/models"
	healthsvc "bitunix_bot/internal/modules/health/service"
	ledger "bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

type staticPosition models.Position

func (p staticPosition) Current() models.Position { return models.Position(p) }

type staticStats ledger.Stats

func (s staticStats) Stats() ledger.Stats { return ledger.Stats(s) }

type fakeAPI struct {
	mu   sync.Mutex
	sent []string
	to   []string
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			require.NoError(t, r.ParseForm())
			f.mu.Lock()
			f.sent = append(f.sent, r.FormValue("text"))
			f.to = append(f.to, r.FormValue("chat_id"))
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func command(chatID int64, cmd string) tgbot.Update {
	text := "/" + cmd
	return tgbot.Update{Message: &tgbot.Message{
		Chat:     &tgbot.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func newTestBot(t *testing.T, api *fakeAPI, pos models.Position) (*Telegram, *healthsvc.State) {
	srv := api.server(t)
	t.Cleanup(srv.Close)

	bot, err := tgbot.NewBotAPIWithAPIEndpoint("token", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	h := healthsvc.NewState()
	return NewTelegramWithBot(bot, 42, "ETHUSDT", h, staticPosition(pos), staticStats{WinCount: 3, LossCount: 1}), h
}

func TestHandleCommands(t *testing.T) {
	api := &fakeAPI{}
	tg, h := newTestBot(t, api, models.Position{
		Side: models.SideLong, Qty: 0.5, PositionID: "p1", EntryKind: models.EntryBreakout,
		EntryPrice: 2000, Stop: 1980, HasStop: true,
	})
	h.SetReady(true)
	h.SetBalance(250)
	h.SetPosition("long", "LongViaBreakout")
	h.TouchCycle(time.Now(), true)

	ctx := context.Background()
	tg.handleUpdate(ctx, command(42, "status"))
	tg.handleUpdate(ctx, command(42, "position"))
	tg.handleUpdate(ctx, command(42, "stats"))
	tg.handleUpdate(ctx, command(42, "unknown"))
	tg.handleUpdate(ctx, command(7, "status"))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 3)
	assert.Equal(t, []string{"42", "42", "42"}, api.to)

	assert.Contains(t, api.sent[0], "✅ работает")
	assert.Contains(t, api.sent[0], "LongViaBreakout")
	assert.Contains(t, api.sent[0], "Баланс: 250.0000")

	assert.Contains(t, api.sent[1], "LONG qty=0.5")
	assert.Contains(t, api.sent[1], "positionId: p1")
	assert.Contains(t, api.sent[1], "Стоп: 1980.0000")

	assert.Equal(t, "🏆 Винрейт 75.00% (3W/1L), сделок 4", api.sent[2])
}

func TestReplyFlatAndHalted(t *testing.T) {
	tg, h := newTestBot(t, &fakeAPI{}, models.Position{})

	text, ok := tg.reply("position")
	require.True(t, ok)
	assert.Equal(t, "📭 Позиции нет", text)

	h.Halt("balance exhausted")
	text, _ = tg.reply("status")
	assert.Contains(t, text, "⛔️ остановлен")
	assert.Contains(t, text, "balance exhausted")

	text, _ = tg.reply("help")
	assert.Contains(t, text, "/status")
}
