package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
	"bitunix_bot/pkg/logger"
)

const defaultBaseURL = "https://fapi.bitunix.com"

// Reporter куда клиент сообщает об отказах. Не должен блокировать.
type Reporter interface {
	Notify(ev models.Event)
}

type Options struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	signer  *Signer
	rep     Reporter

	mu          sync.Mutex
	lastBalance float64
	hasBalance  bool
}

func NewClient(opts Options, rep Reporter) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: opts.Timeout},
		signer:  NewSigner(opts.APIKey, opts.SecretKey),
		rep:     rep,
	}
}

// envelope общий ответ Bitunix.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// do подписывает и отправляет запрос, возвращает data при code==0.
// body маршалится один раз: подписываются те же байты, что уходят в сеть.
func (c *Client) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	query map[string]string,
	body any,
) (_ json.RawMessage, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "bitunix."+op)
	defer func() {
		if err != nil {
			ext.Error.Set(span, true)
			span.SetTag("error.kind", string(errs.KindOf(err)))
		}
		span.Finish()
	}()

	var payload []byte
	if body != nil {
		payload, err = sonic.Marshal(body)
		if err != nil {
			return nil, errs.Wrap(err, errs.KindInvalidInput, op)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		q := url.Values{}
		for k, v := range query {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Wrap(err, errs.KindInvalidInput, op)
	}
	req.Header = c.signer.Headers(method, query, payload)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindTransport, op)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindTransport, op)
	}

	if resp.StatusCode/100 != 2 {
		kind := errs.KindTransport
		if resp.StatusCode/100 == 4 && resp.StatusCode != http.StatusTooManyRequests {
			kind = errs.KindExchangeRejected
		}
		return nil, errs.New(kind, op, "http %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, errs.New(errs.KindMalformedResponse, op, "decode: %v; RAW=%s", err, string(raw))
	}
	if env.Code != 0 {
		return nil, errs.New(errs.KindExchangeRejected, op, "code=%d msg=%s RAW=%s", env.Code, env.Msg, string(raw))
	}
	return env.Data, nil
}

// report лог + уведомление с телом запроса, который не прошёл.
func (c *Client) report(op string, body any, err error) {
	logger.Error("[BITUNIX] %s failed: %v", op, err)
	if c.rep == nil {
		return
	}
	ev := models.Event{
		Kind:    models.EventError,
		Title:   fmt.Sprintf("%s failed", op),
		Message: err.Error(),
		At:      time.Now(),
	}.With("kind", string(errs.KindOf(err)))
	if body != nil {
		if b, mErr := sonic.Marshal(body); mErr == nil {
			ev = ev.With("request", string(b))
		}
	}
	c.rep.Notify(ev)
}
