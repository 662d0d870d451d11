package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/bytedance/sonic"

	"bitunix_bot/internal/models"
)

const attachmentName = "chart.png"

// Discord webhook с embed; картинка уходит multipart (file + payload_json).
type Discord struct {
	url    string
	symbol string
	http   *http.Client
}

func NewDiscord(webhookURL, symbol string, timeout time.Duration) *Discord {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discord{
		url:    webhookURL,
		symbol: symbol,
		http:   &http.Client{Timeout: timeout},
	}
}

func (d *Discord) Name() string { return "discord" }

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordImage struct {
	URL string `json:"url"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Image       *discordImage  `json:"image,omitempty"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func colorOf(kind models.EventKind) int {
	switch kind {
	case models.EventOpenSuccess:
		return 0x2ecc71
	case models.EventCloseSuccess:
		return 0xe67e22
	case models.EventError:
		return 0xe74c3c
	case models.EventStartup:
		return 0x3498db
	}
	return 0x95a5a6
}

func (d *Discord) payload(ev models.Event) discordPayload {
	desc := ev.Title
	if ev.Message != "" {
		if desc != "" {
			desc += "\n"
		}
		desc += ev.Message
	}
	embed := discordEmbed{
		Title:       fmt.Sprintf("%s trading notification", d.symbol),
		Description: desc,
		Color:       colorOf(ev.Kind),
		Timestamp:   ev.At.UTC().Format(time.RFC3339),
	}
	for _, f := range ev.Fields {
		embed.Fields = append(embed.Fields, discordField{Name: f.Name, Value: f.Value})
	}
	if len(ev.Image) > 0 {
		embed.Image = &discordImage{URL: "attachment://" + attachmentName}
	}
	return discordPayload{Embeds: []discordEmbed{embed}}
}

func (d *Discord) Deliver(ctx context.Context, ev models.Event) error {
	payload, err := sonic.Marshal(d.payload(ev))
	if err != nil {
		return fmt.Errorf("discord marshal: %w", err)
	}

	var (
		body        io.Reader = bytes.NewReader(payload)
		contentType           = "application/json"
	)
	if len(ev.Image) > 0 {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, attachmentName))
		h.Set("Content-Type", "image/png")
		fw, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("discord multipart: %w", err)
		}
		if _, err = fw.Write(ev.Image); err != nil {
			return fmt.Errorf("discord multipart: %w", err)
		}
		if err = mw.WriteField("payload_json", string(payload)); err != nil {
			return fmt.Errorf("discord multipart: %w", err)
		}
		if err = mw.Close(); err != nil {
			return fmt.Errorf("discord multipart: %w", err)
		}
		body = buf
		contentType = mw.FormDataContentType()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return fmt.Errorf("discord new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("discord do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("discord http %d: %s", resp.StatusCode, string(data))
	}
	return nil
}
