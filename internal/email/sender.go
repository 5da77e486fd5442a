package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/kafka"
)

// Sender delivers e-tickets through the SendGrid v3 mail API. Failures
// are the caller's to log; they never affect a committed booking.
type Sender struct {
	apiKey    string
	fromEmail string
	baseURL   string
	client    *http.Client
}

func NewSender(cfg config.EmailConfig) *Sender {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	return &Sender{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send renders and delivers one e-ticket per passenger in the event.
// It returns the first delivery error after attempting every
// passenger.
func (s *Sender) Send(ctx context.Context, event kafka.ETicketEvent) error {
	var firstErr error
	for _, p := range event.Passengers {
		html, err := RenderTicket(event, p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		subject := fmt.Sprintf("Your E-Ticket - Booking %s", event.BookingReference)
		if err := s.deliver(ctx, p.Email, subject, html); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (s *Sender) deliver(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: s.fromEmail},
		Subject:          subject,
		Content:          []content{{Type: "text/html", Value: html}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
