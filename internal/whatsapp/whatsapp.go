package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.twilio.com"

// Config holds Twilio credentials. From is the WhatsApp sender
// (e.g. whatsapp:+14155238886). CountryCode prefixes local numbers.
type Config struct {
	AccountSid  string
	AuthToken   string
	From        string
	CountryCode string
	BaseURL     string
}

type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient returns a client. Without credentials every send is a no-op.
func NewClient(cfg Config) *Client {
	if cfg.CountryCode == "" {
		cfg.CountryCode = "51"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) Configured() bool {
	return c.cfg.AccountSid != "" && c.cfg.AuthToken != "" && c.cfg.From != ""
}

// SendBirthdayGreeting sends the birthday message to phone.
// Returns nil without sending when not configured.
func (c *Client) SendBirthdayGreeting(ctx context.Context, phone, patientName, clinicName string) error {
	if !c.Configured() {
		return nil
	}
	body := fmt.Sprintf("¡Feliz cumpleaños, %s! Todo el equipo de %s le desea un excelente día.", patientName, clinicName)
	return c.send(ctx, phone, body)
}

// NormalizePhone turns a local or international number into whatsapp:+E164.
func (c *Client) NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(phone), "+") || strings.HasPrefix(strings.TrimSpace(phone), "whatsapp:+") {
		return "whatsapp:+" + d
	}
	if len(d) == 9 {
		d = c.cfg.CountryCode + d
	}
	return "whatsapp:+" + d
}

func (c *Client) send(ctx context.Context, phone, body string) error {
	to := c.NormalizePhone(phone)
	if to == "" {
		return fmt.Errorf("whatsapp: destinatario vacío")
	}
	from := c.cfg.From
	if !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)
	reqURL := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.AccountSid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSid, c.cfg.AuthToken)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	slurp, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("whatsapp: %s: read body: %w", resp.Status, err)
	}
	return fmt.Errorf("whatsapp: %s: %s", resp.Status, string(slurp))
}
