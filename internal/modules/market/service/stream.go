package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"bitunix_bot/pkg/logger"
)

const (
	defaultWSURL   = "wss://fstream.binance.com/ws"
	reconnectDelay = time.Second
	maxReconnect   = 30 * time.Second
)

type klineEvent struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Kline  struct {
		Start    int64  `json:"t"`
		Interval string `json:"i"`
		Close    string `json:"c"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

// Stream держит последнюю цену из kline-потока. Решения по нему не принимаются,
// цена идёт только в статус и health.
type Stream struct {
	url    string
	dialer *websocket.Dialer

	lastPrice atomic.Uint64
	lastAt    atomic.Int64
	connected atomic.Bool
}

func NewStream(wsURL, pair, timeframe string) *Stream {
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	return &Stream{
		url:    fmt.Sprintf("%s/%s@kline_%s", strings.TrimRight(wsURL, "/"), strings.ToLower(Symbol(pair)), timeframe),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (s *Stream) URL() string { return s.url }

func (s *Stream) Connected() bool { return s.connected.Load() }

// LastPrice false, пока не пришло ни одного сообщения.
func (s *Stream) LastPrice() (float64, time.Time, bool) {
	at := s.lastAt.Load()
	if at == 0 {
		return 0, time.Time{}, false
	}
	return math.Float64frombits(s.lastPrice.Load()), time.UnixMilli(at), true
}

// Run переподключается до отмены ctx.
func (s *Stream) Run(ctx context.Context) {
	delay := reconnectDelay
	for {
		err := s.session(ctx)
		s.connected.Store(false)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("[MARKET] ws %s: %v, reconnect in %s", s.url, err, delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxReconnect {
			delay = maxReconnect
		}
	}
}

func (s *Stream) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// ReadMessage не знает про ctx
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.connected.Store(true)
	logger.Info("[MARKET] ws connected %s", s.url)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		s.handle(msg)
	}
}

func (s *Stream) handle(msg []byte) {
	var ev klineEvent
	if err := sonic.Unmarshal(msg, &ev); err != nil || ev.Event != "kline" {
		return
	}
	px, err := strconv.ParseFloat(ev.Kline.Close, 64)
	if err != nil || px <= 0 {
		return
	}
	s.lastPrice.Store(math.Float64bits(px))
	s.lastAt.Store(time.Now().UnixMilli())
}
