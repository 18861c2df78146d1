// Package notify delivers short text messages to the operator.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LinePushURL is the LINE Messaging API push endpoint
const LinePushURL = "https://api.line.me/v2/bot/message/push"

// Notifier sends a message somewhere a human will see it
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NopNotifier is used when no channel is configured
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// LineNotifier pushes text messages to a single LINE user
type LineNotifier struct {
	token  string
	userID string
	client *http.Client
	log    zerolog.Logger
}

func NewLineNotifier(token, userID string, log zerolog.Logger) *LineNotifier {
	return &LineNotifier{
		token:  token,
		userID: userID,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (n *LineNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(linePushRequest{
		To:       n.userID,
		Messages: []lineMessage{{Type: "text", Text: message}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode LINE push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, LinePushURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build LINE push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send LINE push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("LINE push returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	n.log.Debug().Str("to", n.userID).Msg("notify: LINE push sent")
	return nil
}
